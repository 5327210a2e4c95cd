package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bizcard/internal/classifier"
	"bizcard/internal/contact"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderCards lists cards one per row with the columns that fit a terminal.
func renderCards(records []contact.Record) string {
	headers := []string{"ID", "Name", "Company", "Phone", "Email", "City"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Name,
			rec.CompanyName,
			rec.Phone,
			rec.Email,
			rec.City,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

// renderRecord prints every field of one card as label/value rows.
func renderRecord(rec contact.Record) string {
	rows := make([][]string, 0, len(contact.Fields)+1)
	if rec.ID > 0 {
		rows = append(rows, []string{"ID", strconv.FormatInt(rec.ID, 10)})
	}
	for _, f := range contact.Fields {
		rows = append(rows, []string{f.Label(), rec.Get(f)})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func renderAssignments(assignments []classifier.Assignment) string {
	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []string{
			strconv.Itoa(a.Index),
			a.Text,
			a.Rule,
			string(a.Field),
			string(a.Outcome),
		})
	}
	return renderTable([]string{"#", "Fragment", "Rule", "Field", "Outcome"}, rows, []columnAlignment{alignRight})
}
