// Package export writes enriched feedback tables and their statistics.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// Columns is the ordered header of an enriched export.
var Columns = []string{
	"Feedback",
	"AI_Category",
	"AI_Summary",
	"Product",
	"Severity",
	"Region",
	"Opportunity_Score",
}

// InputColumns is the header of a feedback input file.
var InputColumns = []string{"Feedback", "Product", "Severity", "Region", "Category"}

// WriteCSV writes records with the Columns header.
func WriteCSV(w io.Writer, records []model.Enriched) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		if err := cw.Write(buildRow(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteFeedbackCSV writes unenriched rows in the input file format.
func WriteFeedbackCSV(w io.Writer, rows []model.Feedback) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(InputColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, f := range rows {
		row := []string{f.Text, f.Product, string(f.Severity), string(f.Region), f.HumanCategory}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes records to a workbook at path with the Columns header.
func WriteXLSX(path string, records []model.Enriched) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Feedback")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}
	for _, r := range records {
		row := sheet.AddRow()
		values := buildRow(r)
		for _, v := range values[:len(values)-1] {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(r.OpportunityScore)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close yaml encoder")
}

// WriteFile creates path and writes records in the given format
// (csv, xlsx or json).
func WriteFile(path, format string, records []model.Enriched) error {
	var write func(io.Writer) error
	switch format {
	case "xlsx":
		return WriteXLSX(path, records)
	case "json":
		write = func(w io.Writer) error { return WriteJSON(w, records) }
	case "csv", "":
		write = func(w io.Writer) error { return WriteCSV(w, records) }
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close() //nolint:errcheck

	if err := write(f); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "export: close file")
}

func buildRow(r model.Enriched) []string {
	return []string{
		r.Text,
		string(r.Category),
		r.Summary,
		r.Product,
		string(r.Severity),
		string(r.Region),
		strconv.Itoa(r.OpportunityScore),
	}
}
