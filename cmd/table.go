package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
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

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func songTable(songs []models.Song) string {
	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.Title,
			s.Artist,
			orDash(s.KeySignature),
			intOrDash(s.BPM),
			durationOrDash(s.DurationSeconds),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Artist", "Key", "BPM", "Length"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func chordTable(diagrams []models.ChordDiagram) string {
	rows := make([][]string, 0, len(diagrams))
	for _, d := range diagrams {
		rows = append(rows, []string{d.ChordName, d.FretPositions, orDash(d.FingerPositions)})
	}
	return renderTable([]string{"Chord", "Frets", "Fingers"}, rows, nil)
}

func candidateTable(candidates []models.CandidateSong) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Title,
			c.Artist,
			orDash(c.KeySignature),
			intOrDash(c.BPM),
			durationOrDash(c.DurationSeconds),
		})
	}
	return renderTable(
		[]string{"#", "Title", "Artist", "Key", "BPM", "Length"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(i *int) string {
	if i == nil {
		return "-"
	}
	return strconv.Itoa(*i)
}

func durationOrDash(i *int) string {
	if i == nil {
		return "-"
	}
	return shared.FormatDuration(*i)
}
