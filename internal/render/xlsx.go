package render

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/symbology/internal/style"
)

// LegendSheet is the name of the worksheet written by WriteLegendXLSX.
const LegendSheet = "Legend"

var legendHeader = []string{"Class", "Lower", "Upper", "Color", "Label"}

// LegendWorkbook lays out a legend as a single worksheet with a header row
// followed by one row per class.
func LegendWorkbook(legend style.Legend) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(LegendSheet)
	if err != nil {
		return nil, eris.Wrap(err, "render: add legend sheet")
	}

	header := sheet.AddRow()
	for _, h := range legendHeader {
		header.AddCell().SetString(h)
	}

	for _, e := range legend.Entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(e.Class + 1)
		row.AddCell().SetFloat(e.Lower)
		row.AddCell().SetFloat(e.Upper)
		row.AddCell().SetString(e.Color)
		row.AddCell().SetString(e.Label)
	}
	return f, nil
}

// WriteLegendXLSX writes the legend workbook to w.
func WriteLegendXLSX(w io.Writer, legend style.Legend) error {
	f, err := LegendWorkbook(legend)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "render: write legend xlsx")
	}
	return nil
}

// SaveLegendXLSX writes the legend workbook to path.
func SaveLegendXLSX(path string, legend style.Legend) error {
	f, err := LegendWorkbook(legend)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "render: save legend %s", path)
	}
	return nil
}
