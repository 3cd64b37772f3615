package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName      = "Roster"
	dateNumFmt     = "yyyy-mm-dd"
	currencyNumFmt = `#,##0.00 "€"`
)

// WriteXLSX writes a single-sheet workbook with a styled, frozen and filterable header row.
func WriteXLSX(w io.Writer, r Roster) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	cols := columnsFor(r)
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheetName, cell, c.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, c.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(sheetName, first, last, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for ri, row := range r.Rows {
		for ci, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			v := c.value(row)
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
			var style int
			switch v.(type) {
			case time.Time:
				style = styles.date
			case float64:
				style = styles.currency
			default:
				continue
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return fmt.Errorf("style cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	lastRow, _ := excelize.CoordinatesToCellName(len(cols), len(r.Rows)+1)
	if err := f.AutoFilter(sheetName, "A1:"+lastRow, nil); err != nil {
		return fmt.Errorf("autofilter: %w", err)
	}
	title := "Members"
	if r.Season != nil {
		title = "Members " + r.Season.Label
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Creator: "backoffice",
		Created: r.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("set properties: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header   int
	date     int
	currency int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var st sheetStyles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5597"}},
		Alignment: &excelize.Alignment{
			Vertical: "center",
			WrapText: true,
		},
	})
	if err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	dateFmt := dateNumFmt
	st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return st, fmt.Errorf("date style: %w", err)
	}
	currencyFmt := currencyNumFmt
	st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return st, fmt.Errorf("currency style: %w", err)
	}
	return st, nil
}
