// Command itpctl checks scoring weight vectors and ideal target profiles
// offline, and manages the database schema.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
