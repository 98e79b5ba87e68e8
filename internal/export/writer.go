package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

// bom lets spreadsheet applications detect UTF-8.
const bom = "\xEF\xBB\xBF"

const sheetName = "Patients"

// Source streams the records to export.
type Source interface {
	Each(ctx context.Context, f patient.Filter, fn func(*patient.Record) error) error
}

// WriteCSV writes a BOM, the header row and one row per record matching f.
// It returns the number of data rows written.
func WriteCSV(ctx context.Context, w io.Writer, src Source, f patient.Filter) (int, error) {
	if _, err := io.WriteString(w, bom); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err := src.Each(ctx, f, func(r *patient.Record) error {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("write row %s: %w", r.UniqueCode, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

// WriteXLSX writes the same rows as WriteCSV to a single-sheet workbook with
// a bold frozen header row.
func WriteXLSX(ctx context.Context, w io.Writer, src Source, f patient.Filter) (int, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := wb.NewStreamWriter(sheetName)
	if err != nil {
		return 0, fmt.Errorf("create stream writer: %w", err)
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, fmt.Errorf("freeze header: %w", err)
	}
	if err := sw.SetColWidth(1, len(columns), 18); err != nil {
		return 0, fmt.Errorf("set column width: %w", err)
	}

	headers := Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err = src.Each(ctx, f, func(r *patient.Record) error {
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		values := Row(r)
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %s: %w", r.UniqueCode, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := sw.Flush(); err != nil {
		return n, fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := wb.WriteTo(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}
