package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/signintech/gopdf"
)

// A4 sheet of 3x8 labels, 70 x 37.125 mm each, no margins.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	labelColumns = 3
	labelRows    = 8
	labelWidth   = pageWidth / labelColumns
	labelHeight  = pageHeight / labelRows
	labelPadding = 5.0
	labelFont    = "label"
	labelSize    = 10
	lineHeight   = 4.6
	maxLines     = 6
)

// WriteLabelsPDF writes one postal address label per row. Minors with a legal contact are
// addressed care of that contact.
func WriteLabelsPDF(w io.Writer, r Roster, fontPath string) error {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		PageSize: gopdf.Rect{W: pageWidth, H: pageHeight},
		Unit:     gopdf.UnitMM,
	})
	if err := pdf.AddTTFFont(labelFont, fontPath); err != nil {
		return fmt.Errorf("load label font: %w", err)
	}
	if len(r.Rows) == 0 {
		pdf.AddPage()
	}

	perPage := labelColumns * labelRows
	for i, row := range r.Rows {
		slot := i % perPage
		if slot == 0 {
			pdf.AddPage()
			if err := pdf.SetFont(labelFont, "", labelSize); err != nil {
				return fmt.Errorf("set label font: %w", err)
			}
		}
		x := float64(slot%labelColumns)*labelWidth + labelPadding
		y := float64(slot/labelColumns)*labelHeight + labelPadding
		for li, line := range labelLines(row) {
			fitted := fitWidth(pdf, line, labelWidth-2*labelPadding)
			pdf.SetXY(x, y+float64(li)*lineHeight)
			if err := pdf.Cell(nil, fitted); err != nil {
				return fmt.Errorf("draw label %d: %w", i, err)
			}
		}
	}

	if err := pdf.Write(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// labelLines returns the address block of a row, at most maxLines lines.
func labelLines(row RosterRow) []string {
	m := row.Member
	lines := make([]string, 0, maxLines)
	lines = append(lines, m.FirstName+" "+m.LastName)
	if lc := m.LegalContact; row.Minor && lc != nil {
		lines = append(lines, "c/o "+strings.TrimSpace(lc.FirstName+" "+lc.LastName))
	}
	lines = append(lines, m.Address.Street)
	if m.Address.Complement != nil && *m.Address.Complement != "" {
		lines = append(lines, *m.Address.Complement)
	}
	lines = append(lines, strings.TrimSpace(m.Address.PostalCode+" "+strings.ToUpper(m.Address.City)))
	if c := m.Address.Country; c != "" && c != "FR" {
		lines = append(lines, c)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

// fitWidth trims runes from the end of s until it fits within width.
func fitWidth(pdf *gopdf.GoPdf, s string, width float64) string {
	runes := []rune(s)
	for len(runes) > 0 {
		w, err := pdf.MeasureTextWidth(string(runes))
		if err != nil || w <= width {
			break
		}
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
