package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bizcard/internal/contact"
	"bizcard/internal/services"
)

// Format is an export output format.
type Format string

const (
	FormatXLSX  Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatVCard Format = "vcard"
)

// ParseFormat resolves a format name. "vcf" is accepted for vcard.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "vcard", "vcf":
		return FormatVCard, nil
	default:
		return "", services.Wrap(services.ErrValidation, "export", "parse format", fmt.Sprintf("unknown format %q (want xlsx, csv or vcard)", raw), nil)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == FormatVCard {
		return ".vcf"
	}
	return "." + string(f)
}

// Write renders records to w in format f.
func Write(w io.Writer, f Format, records []contact.Record) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatVCard:
		return WriteVCards(w, records)
	default:
		return services.Wrap(services.ErrValidation, "export", "write", fmt.Sprintf("unknown format %q", f), nil)
	}
}

const sheetName = "Cards"

func header() []string {
	out := []string{"ID"}
	for _, f := range contact.Fields {
		out = append(out, f.Label())
	}
	return out
}

func row(rec contact.Record) []string {
	return append([]string{strconv.FormatInt(rec.ID, 10)}, rec.Values()...)
}

// WriteXLSX writes a single-sheet workbook with one row per card.
func WriteXLSX(w io.Writer, records []contact.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	set := func(col, line int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, line)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}
	for i, h := range header() {
		if err := set(i+1, 1, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	for r, rec := range records {
		if err := set(1, r+2, rec.ID); err != nil {
			return fmt.Errorf("xlsx row %d: %w", r+2, err)
		}
		for c, value := range rec.Values() {
			if err := set(c+2, r+2, value); err != nil {
				return fmt.Errorf("xlsx row %d: %w", r+2, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 6)   // id
	_ = f.SetColWidth(sheetName, "B", "D", 24)  // name, designation, company
	_ = f.SetColWidth(sheetName, "E", "G", 28)  // phone, email, website
	_ = f.SetColWidth(sheetName, "H", "K", 18)  // address
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("xlsx panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// WriteCSV writes a header row and one row per card.
func WriteCSV(w io.Writer, records []contact.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
