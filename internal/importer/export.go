package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/xuri/excelize/v2"
)

func itemRecord(it model.Item) []string {
	return []string{it.NameMain, it.NameSub, it.PriceBGN, it.Unit, strconv.Itoa(max(it.Copies, 1))}
}

// WriteCSV writes items with the Header row.
func WriteCSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write(itemRecord(it)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes items to a CSV file.
func ExportCSV(path string, items []model.Item) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	if err := WriteCSV(f, items); err != nil {
		f.Close()
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return f.Close()
}

// ExportExcel writes items to the first sheet of a new workbook. Prices
// are written as numbers so spreadsheets can sum them.
func ExportExcel(path string, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
		return err
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{it.NameMain, it.NameSub, it.PriceBGN, it.Unit, max(it.Copies, 1)}
		if v, err := strconv.ParseFloat(it.PriceBGN, 64); err == nil {
			row[2] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}
