package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/ajharbinger/dealscope/internal/models"
)

var dateLayouts = []string{time.DateOnly, "2006/01/02", time.RFC3339}

type subscriptionRow struct {
	CustomerID string `csv:"customer_id"`
	Plan       string `csv:"plan"`
	MRR        string `csv:"mrr"`
	StartDate  string `csv:"start_date"`
	EndDate    string `csv:"end_date"`
}

type invoiceRow struct {
	InvoiceID  string `csv:"invoice_id"`
	CustomerID string `csv:"customer_id"`
	Amount     string `csv:"amount"`
	IssuedOn   string `csv:"issued_on"`
}

type paymentRow struct {
	PaymentID  string `csv:"payment_id"`
	CustomerID string `csv:"customer_id"`
	Amount     string `csv:"amount"`
	PaidOn     string `csv:"paid_on"`
}

type expenseRow struct {
	Category string `csv:"category"`
	Amount   string `csv:"amount"`
	Date     string `csv:"date"`
}

// field is one cell checked by a row validator
type field struct {
	name     string
	value    string
	required bool
	kind     fieldKind
}

type fieldKind int

const (
	textField fieldKind = iota
	amountField
	dateField
)

// lineRecords holds every CSV record with the line it starts on. Row numbers
// in upload errors are these lines: blank lines still count, and a quoted
// cell spanning lines reports the line its record starts on.
type lineRecords struct {
	rows  [][]string
	lines []int
}

// GetCSVRows makes lineRecords a gocsv decoder
func (l *lineRecords) GetCSVRows() ([][]string, error) {
	return l.rows, nil
}

// line is the spreadsheet line of data row i; row 0 is the header
func (l *lineRecords) line(i int) int {
	return l.lines[i+1]
}

func readLineRecords(r io.Reader) (*lineRecords, error) {
	reader := csv.NewReader(r)
	out := &lineRecords{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		out.rows = append(out.rows, record)
		out.lines = append(out.lines, line)
	}
}

// ParsedCategory is the outcome of parsing one uploaded CSV
type ParsedCategory struct {
	Category string
	Accepted int
	Total    decimal.Decimal
	First    *time.Time
	Last     *time.Time
	Errors   []models.UploadError
}

// ParseCategory reads one CSV part. Rows with problems are reported and
// excluded; the rest are accepted.
func ParseCategory(category string, r io.Reader) (*ParsedCategory, error) {
	records, err := readLineRecords(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s csv: %w", category, err)
	}

	var rows [][]field
	switch category {
	case models.CategorySubscriptions:
		var parsed []subscriptionRow
		err = gocsv.UnmarshalDecoder(records, &parsed)
		for _, p := range parsed {
			rows = append(rows, []field{
				{"customer_id", p.CustomerID, true, textField},
				{"plan", p.Plan, false, textField},
				{"mrr", p.MRR, true, amountField},
				{"start_date", p.StartDate, true, dateField},
				{"end_date", p.EndDate, false, dateField},
			})
		}
	case models.CategoryInvoices:
		var parsed []invoiceRow
		err = gocsv.UnmarshalDecoder(records, &parsed)
		for _, p := range parsed {
			rows = append(rows, []field{
				{"invoice_id", p.InvoiceID, true, textField},
				{"customer_id", p.CustomerID, true, textField},
				{"amount", p.Amount, true, amountField},
				{"issued_on", p.IssuedOn, true, dateField},
			})
		}
	case models.CategoryPayments:
		var parsed []paymentRow
		err = gocsv.UnmarshalDecoder(records, &parsed)
		for _, p := range parsed {
			rows = append(rows, []field{
				{"payment_id", p.PaymentID, true, textField},
				{"customer_id", p.CustomerID, true, textField},
				{"amount", p.Amount, true, amountField},
				{"paid_on", p.PaidOn, true, dateField},
			})
		}
	case models.CategoryCOGS, models.CategorySalesMarketing:
		var parsed []expenseRow
		err = gocsv.UnmarshalDecoder(records, &parsed)
		for _, p := range parsed {
			rows = append(rows, []field{
				{"category", p.Category, true, textField},
				{"amount", p.Amount, true, amountField},
				{"date", p.Date, true, dateField},
			})
		}
	default:
		return nil, fmt.Errorf("unrecognized file category %q", category)
	}

	if err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return &ParsedCategory{Category: category, Total: decimal.Zero, Errors: []models.UploadError{{
				Row: 0, Field: category, Message: "file is empty",
			}}}, nil
		}
		return nil, fmt.Errorf("failed to read %s csv: %w", category, err)
	}

	out := &ParsedCategory{Category: category, Total: decimal.Zero}
	for i, row := range rows {
		line := records.line(i)
		var rowErrs []models.UploadError
		var amount decimal.Decimal
		var dates []time.Time

		for _, f := range row {
			v := strings.TrimSpace(f.value)
			if v == "" {
				if f.required {
					rowErrs = append(rowErrs, models.UploadError{Row: line, Field: f.name, Message: "is required"})
				}
				continue
			}
			switch f.kind {
			case amountField:
				d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
				if err != nil {
					rowErrs = append(rowErrs, models.UploadError{Row: line, Field: f.name, Message: "must be a number"})
					continue
				}
				if d.IsNegative() {
					rowErrs = append(rowErrs, models.UploadError{Row: line, Field: f.name, Message: "must not be negative"})
					continue
				}
				amount = d
			case dateField:
				t, ok := parseDate(v)
				if !ok {
					rowErrs = append(rowErrs, models.UploadError{Row: line, Field: f.name, Message: "must be a date (YYYY-MM-DD)"})
					continue
				}
				dates = append(dates, t)
			}
		}

		if len(rowErrs) > 0 {
			out.Errors = append(out.Errors, rowErrs...)
			continue
		}

		out.Accepted++
		out.Total = out.Total.Add(amount)
		for _, d := range dates {
			out.widen(d)
		}
	}
	return out, nil
}

func (p *ParsedCategory) widen(t time.Time) {
	if p.First == nil || t.Before(*p.First) {
		t := t
		p.First = &t
	}
	if p.Last == nil || t.After(*p.Last) {
		t := t
		p.Last = &t
	}
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}
