package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajharbinger/dealscope/internal/database"
	"github.com/ajharbinger/dealscope/internal/scoring"
	"github.com/ajharbinger/dealscope/pkg/config"
)

// errInvalid makes the process exit non-zero after a report was printed
var errInvalid = errors.New("input is not valid")

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "itpctl",
		Short:        "Inspect scoring weights and ideal target profiles",
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(
		newDefaultsCmd(),
		newValidateCmd(),
		newNormalizeCmd(),
		newScoreCmd(),
		newCheckProfileCmd(),
		newMigrateCmd(),
	)
	return root
}

// readInput decodes JSON from the named file, or stdin for "-" or ""
func readInput(cmd *cobra.Command, path string, dst interface{}) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default weight vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, scoring.DefaultWeights())
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [weights.json]",
		Short: "Check a weight vector; exits non-zero when any weight is out of range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w scoring.ScoringWeights
			if err := readInput(cmd, inputArg(args), &w); err != nil {
				return err
			}
			report := scoring.Report(w)
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.Valid {
				return errInvalid
			}
			return nil
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [weights.json]",
		Short: "Rescale a weight vector to sum to one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w scoring.ScoringWeights
			if err := readInput(cmd, inputArg(args), &w); err != nil {
				return err
			}
			return printJSON(cmd, scoring.Normalize(w))
		},
	}
}

type scoreInput struct {
	Weights   scoring.ScoringWeights       `json:"weights"`
	SubScores map[scoring.Category]float64 `json:"subScores"`
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [input.json]",
		Short: "Apply weights to sub-scores: {\"weights\":{...},\"subScores\":{...}}",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input scoreInput
			if err := readInput(cmd, inputArg(args), &input); err != nil {
				return err
			}
			if input.Weights == nil {
				input.Weights = scoring.DefaultWeights()
			}
			if bad := scoring.OutOfRangeSubScores(input.SubScores); len(bad) > 0 {
				return fmt.Errorf("%w: sub-scores outside 0-1: %v", errInvalid, bad)
			}
			_, percent := scoring.MatchPercent(input.Weights, input.SubScores)
			return printJSON(cmd, map[string]interface{}{
				"score":        scoring.WeightedScore(input.Weights, input.SubScores),
				"matchPercent": percent,
			})
		},
	}
}

func newCheckProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-profile [profile.json]",
		Short: "Validate an ideal target profile; exits non-zero when it cannot be saved",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := scoring.RequestProfile()
			if err := readInput(cmd, inputArg(args), &p); err != nil {
				return err
			}
			if p.ScoringWeights == nil {
				p.ScoringWeights = scoring.DefaultWeights()
			}
			report := p.Check()
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.Valid {
				return errInvalid
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				_ = godotenv.Load()
				databaseURL = config.New().DatabaseURL
			}
			if databaseURL == "" {
				return errors.New("set DATABASE_URL or pass --database-url")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := database.RunMigrations(databaseURL); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := database.RollbackMigration(databaseURL); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := database.MigrationVersion(databaseURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}
