// Package ingest validates and normalizes untrusted feedback tables.
package ingest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// Column names of the input table.
const (
	ColFeedback = "Feedback"
	ColProduct  = "Product"
	ColSeverity = "Severity"
	ColRegion   = "Region"
	ColCategory = "Category"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{ColFeedback, ColProduct, ColSeverity, ColRegion}

// DefaultMaxRows caps the number of data rows accepted from one source.
const DefaultMaxRows = 50000

// ValidationError reports a table that cannot be normalized at all.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ingest: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// WarningKind classifies a data-quality warning.
type WarningKind string

const (
	WarnDroppedRows     WarningKind = "dropped_rows"
	WarnInvalidSeverity WarningKind = "invalid_severity"
	WarnInvalidRegion   WarningKind = "invalid_region"
	WarnTruncated       WarningKind = "truncated"
)

// Warning is a corrected data-quality problem and the number of rows affected.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Count   int         `json:"count"`
	Message string      `json:"message"`
}

// Options configures Normalize.
type Options struct {
	// MaxRows caps accepted data rows. Zero means DefaultMaxRows; negative
	// disables the cap.
	MaxRows int
}

// Result is a normalized table plus the warnings raised while producing it.
type Result struct {
	Records  []model.Feedback `json:"records"`
	Warnings []Warning        `json:"warnings"`
	// InputRows is the number of data rows before truncation and dropping.
	InputRows int `json:"input_rows"`
}

// Warning returns the warning of the given kind, if any.
func (r *Result) Warning(kind WarningKind) (Warning, bool) {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return w, true
		}
	}
	return Warning{}, false
}

// Normalize validates header, trims every cell, drops rows with an empty
// required value and coerces severity and region into their closed sets.
// It returns a *ValidationError when a required column is absent.
func Normalize(header []string, rows [][]string, opts Options) (*Result, error) {
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	res := &Result{InputRows: len(rows)}

	maxRows := opts.MaxRows
	if maxRows == 0 {
		maxRows = DefaultMaxRows
	}
	if maxRows > 0 && len(rows) > maxRows {
		res.addWarning(WarnTruncated, len(rows)-maxRows,
			fmt.Sprintf("input has more than %d rows; extra rows were ignored", maxRows))
		rows = rows[:maxRows]
	}

	title := cases.Title(language.English)
	upper := cases.Upper(language.English)

	var dropped, badSeverity, badRegion int
	records := make([]model.Feedback, 0, len(rows))
	for _, row := range rows {
		text := getCol(row, colIdx, ColFeedback)
		product := getCol(row, colIdx, ColProduct)
		rawSeverity := getCol(row, colIdx, ColSeverity)
		rawRegion := getCol(row, colIdx, ColRegion)
		if text == "" || product == "" || rawSeverity == "" || rawRegion == "" {
			dropped++
			continue
		}

		severity := model.Severity(title.String(rawSeverity))
		if !severity.Valid() {
			severity = model.DefaultSeverity
			badSeverity++
		}
		region := model.Region(upper.String(rawRegion))
		if !region.Valid() {
			region = model.DefaultRegion
			badRegion++
		}

		records = append(records, model.Feedback{
			Text:          text,
			Product:       product,
			Severity:      severity,
			Region:        region,
			HumanCategory: getCol(row, colIdx, ColCategory),
		})
	}
	res.Records = records

	if dropped > 0 {
		res.addWarning(WarnDroppedRows, dropped,
			fmt.Sprintf("%d rows with missing required values were removed", dropped))
	}
	if badSeverity > 0 {
		res.addWarning(WarnInvalidSeverity, badSeverity,
			fmt.Sprintf("%d rows had an invalid severity and were set to %s", badSeverity, model.DefaultSeverity))
	}
	if badRegion > 0 {
		res.addWarning(WarnInvalidRegion, badRegion,
			fmt.Sprintf("%d rows had an invalid region and were set to %s", badRegion, model.DefaultRegion))
	}

	return res, nil
}

func (r *Result) addWarning(kind WarningKind, count int, msg string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Count: count, Message: msg})
	zap.L().Warn("data quality warning",
		zap.String("kind", string(kind)),
		zap.Int("rows", count),
		zap.String("message", msg),
	)
}

// getCol safely retrieves a trimmed column value from a row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
