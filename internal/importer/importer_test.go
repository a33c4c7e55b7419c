package importer

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("name,price,copies\nМляко,2.49,2\nХляб,1.20,1\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	// Decimal commas are common in Bulgarian spreadsheets
	data := []byte("name;price;copies\nМляко;2,49;2\nХляб;1,20;1\n")
	if got := DetectCSVDelimiter(data); got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("name\tprice\tcopies\nМляко\t2.49\t2\n")
	if got := DetectCSVDelimiter(data); got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("name|price|copies\nМляко|2.49|2\n")
	if got := DetectCSVDelimiter(data); got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns(Header)
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{NameMain: 0, NameSub: 1, PriceBGN: 2, Unit: 3, Copies: 4}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_CaseInsensitiveAliases(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"\ufeffPRODUCT", "Description", "Price", "UOM", "Qty"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.NameMain != 0 || mapping.NameSub != 1 || mapping.PriceBGN != 2 || mapping.Unit != 3 || mapping.Copies != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_BulgarianHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Брой", "Цена", "Наименование"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Copies != 0 || mapping.PriceBGN != 1 || mapping.NameMain != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.NameSub != -1 || mapping.Unit != -1 {
		t.Errorf("expected missing columns to be -1, got %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Мляко", "3.2%", "2.49", "бр.", "2"})
	if isHeader {
		t.Error("expected no header")
	}
	if mapping.NameMain != 0 || mapping.Copies != 4 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "name_main,name_sub,price_bgn,unit,copies\n" +
		"Мляко,3.2% 1л,\"2,49 лв.\",бр.,2\n" +
		"Хляб,,1.2,,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	milk := result.Items[0]
	if milk.NameMain != "Мляко" || milk.NameSub != "3.2% 1л" {
		t.Errorf("unexpected names %q / %q", milk.NameMain, milk.NameSub)
	}
	if milk.PriceBGN != "2.49" {
		t.Errorf("expected normalized price 2.49, got %q", milk.PriceBGN)
	}
	if milk.Unit != "бр." || milk.Copies != 2 {
		t.Errorf("unexpected unit/copies %q/%d", milk.Unit, milk.Copies)
	}

	bread := result.Items[1]
	if bread.PriceBGN != "1.2" {
		t.Errorf("expected price 1.2, got %q", bread.PriceBGN)
	}
	if bread.Copies != 1 {
		t.Errorf("expected default copies 1, got %d", bread.Copies)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Мляко,1л,2.49,бр.,3\nСирене,,12,кг,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[0].Copies != 3 || result.Items[1].PriceBGN != "12" {
		t.Errorf("unexpected items %+v", result.Items)
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	data := "Artikel,Zusatz,Preis\nМляко,,2.49\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d (errors %v)", len(result.Items), result.Errors)
	}
	if result.Items[0].NameMain != "Мляко" {
		t.Errorf("expected header row to be skipped, got %q", result.Items[0].NameMain)
	}
}

func TestImportCSVFromReader_SemicolonDelimiter(t *testing.T) {
	data := "name;price;copies\nМляко;2,49;2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if result.Items[0].PriceBGN != "2.49" || result.Items[0].Copies != 2 {
		t.Errorf("unexpected item %+v", result.Items[0])
	}
}

func TestImportCSVFromReader_ReorderedColumns(t *testing.T) {
	data := "copies,unit,price,name\n4,кг,9.90,Кашкавал\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	it := result.Items[0]
	if it.NameMain != "Кашкавал" || it.PriceBGN != "9.9" || it.Unit != "кг" || it.Copies != 4 {
		t.Errorf("unexpected item %+v", it)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

func TestImportCSVFromReader_InvalidCopies(t *testing.T) {
	data := "name,price,copies\nA,1,many\nB,1,0\nC,1,-2\nD,1,5\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Items) != 1 || result.Items[0].NameMain != "D" {
		t.Errorf("expected only D to import, got %+v", result.Items)
	}
}

func TestImportCSVFromReader_MissingName(t *testing.T) {
	data := "name_main,name_sub,price_bgn\n,,2.49\nМляко,,2.49\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
	if len(result.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(result.Items))
	}
}

func TestImportCSVFromReader_SubNameOnly(t *testing.T) {
	data := "name_main,name_sub,price_bgn\n,на килограм,5\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected a row with only a sub name to import, errors %v", result.Errors)
	}
}

func TestImportCSVFromReader_InvalidPriceWarns(t *testing.T) {
	data := "name,price\nМляко,безплатно\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if result.Items[0].PriceBGN != "0" {
		t.Errorf("expected price 0, got %q", result.Items[0].PriceBGN)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Invalid price") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected invalid price warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_EmptyPriceStaysBlank(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("name,price\nМляко,\n"), ',')
	if len(result.Items) != 1 || result.Items[0].PriceBGN != "" {
		t.Errorf("expected blank price, got %+v", result.Items)
	}
}

func TestImportCSVFromReader_EmptyRows(t *testing.T) {
	data := "name,price\nA,1\n,\n\nB,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')
	if len(result.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(result.Items))
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected empty rows to be skipped silently, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	data := "price,copies\n2.49,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "name_main") {
		t.Errorf("expected missing name_main error, got %v", result.Errors)
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	if err := os.WriteFile(path, []byte("name;price;copies\nМляко;2,49;2\nХляб;1,20;1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportCSV(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected semicolon warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV(filepath.Join(t.TempDir(), "missing.csv"))
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	result := ImportCSV(path)
	if len(result.Errors) != 1 || result.Errors[0] != "File is empty" {
		t.Errorf("expected empty file error, got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Наименование", "Описание", "Цена", "Мярка", "Брой"},
		{"Мляко", "1л", 2.49, "бр.", 2},
		{"Кашкавал", "", 18.9, "кг", 1},
	})

	result := ImportExcel(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[0].PriceBGN != "2.49" || result.Items[0].Copies != 2 {
		t.Errorf("unexpected first item %+v", result.Items[0])
	}
	if result.Items[1].PriceBGN != "18.9" || result.Items[1].Unit != "кг" {
		t.Errorf("unexpected second item %+v", result.Items[1])
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel(filepath.Join(t.TempDir(), "missing.xlsx"))
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

func TestImportExcel_EmptySheet(t *testing.T) {
	path := createTestExcel(t, nil)
	result := ImportExcel(path)
	if len(result.Errors) == 0 {
		t.Error("expected error for empty sheet")
	}
}

// ─── Export Tests ──────────────────────────────────────────

func sampleItems() []model.Item {
	return []model.Item{
		model.NewItem("Мляко", "3.2%, 1л", "2.49", "бр.", 2),
		model.NewItem("Хляб \"Добруджа\"", "", "1.2", "", 1),
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleItems()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "name_main,name_sub,price_bgn,unit,copies\n") {
		t.Errorf("unexpected header line in %q", buf.String())
	}

	result := ImportCSVFromReader(&buf, ',')
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	assertSameItems(t, sampleItems(), result.Items)
}

func TestExportExcel_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := ExportExcel(path, sampleItems()); err != nil {
		t.Fatalf("ExportExcel failed: %v", err)
	}

	result := ImportExcel(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	assertSameItems(t, sampleItems(), result.Items)
}

func TestExportCSV_BadPath(t *testing.T) {
	if err := ExportCSV(filepath.Join(t.TempDir(), "no", "such", "dir.csv"), sampleItems()); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func assertSameItems(t *testing.T, want, got []model.Item) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.NameMain != g.NameMain || w.NameSub != g.NameSub || w.PriceBGN != g.PriceBGN ||
			w.Unit != g.Unit || w.Copies != g.Copies {
			t.Errorf("item %d: expected %+v, got %+v", i, w, g)
		}
	}
}

// ─── Item Expansion Tests ──────────────────────────────────

func TestExpandItems(t *testing.T) {
	base := model.NewLabelContent()
	base.Main.Text = "leftover"
	base.Main.Bold = true
	linker := currency.NewLinker(model.ModeAToB, 1.95583)

	cells := ExpandItems(sampleItems(), base, linker)
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if cells[0] != cells[1] {
		t.Error("expected copies to be identical")
	}
	if cells[0].Main.Text != "Мляко" || !cells[0].Main.Bold {
		t.Errorf("expected name with base style, got %+v", cells[0].Main)
	}
	if cells[0].PriceB.Text != "1.27" {
		t.Errorf("expected derived EUR price 1.27, got %q", cells[0].PriceB.Text)
	}
	if cells[2].Unit != "" {
		t.Errorf("expected blank unit, got %q", cells[2].Unit)
	}
}

func TestExpandItems_NilLinker(t *testing.T) {
	cells := ExpandItems(sampleItems()[:1], model.NewLabelContent(), nil)
	if cells[0].PriceB.Text != "" {
		t.Errorf("expected blank B price without a linker, got %q", cells[0].PriceB.Text)
	}
}

func TestCollapseCells(t *testing.T) {
	cells := ExpandItems(sampleItems(), model.NewLabelContent(), nil)
	cells = append(cells, model.NewLabelContent())

	items := CollapseCells(cells)
	assertSameItems(t, sampleItems(), items)
}

// ─── Sheet Template Import Tests ───────────────────────────

func TestImportSheetTemplate_RoundTrip(t *testing.T) {
	params := model.DefaultCalibrationParams()
	path := filepath.Join(t.TempDir(), "sheet.dxf")
	if err := export.ExportDXF(path, params, true); err != nil {
		t.Fatalf("ExportDXF failed: %v", err)
	}

	base := model.DefaultCalibrationParams()
	base.Rows, base.Cols = 1, 1
	base.LabelWidth, base.LabelHeight = 10, 10
	base.SheetOffsetLeft, base.SheetOffsetTop = 0, 0

	result, err := ImportSheetTemplate(path, base)
	if err != nil {
		t.Fatalf("ImportSheetTemplate failed: %v", err)
	}
	got := result.Params
	if result.Labels != 21 {
		t.Errorf("expected 21 labels, got %d", result.Labels)
	}
	if got.Rows != 7 || got.Cols != 3 {
		t.Errorf("expected 7x3 grid, got %dx%d", got.Rows, got.Cols)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"LabelWidth", got.LabelWidth, 63.5},
		{"LabelHeight", got.LabelHeight, 38.1},
		{"ColGap", got.ColGap, 2.5},
		{"RowGap", got.RowGap, 0},
		{"SheetOffsetLeft", got.SheetOffsetLeft, 2.5},
		{"SheetOffsetTop", got.SheetOffsetTop, 10.5},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 0.01 {
			t.Errorf("%s: expected %.2f, got %.2f", c.name, c.want, c.got)
		}
	}
	if got.HWMarginLeft != base.HWMarginLeft {
		t.Errorf("expected hardware margin to come from base")
	}
}

func TestImportSheetTemplate_PageOutline(t *testing.T) {
	d := dxf.NewDrawing()
	rect := func(x, y, w, h float64) {
		d.Line(x, y, 0, x+w, y, 0)
		d.Line(x+w, y, 0, x+w, y+h, 0)
		d.Line(x+w, y+h, 0, x, y+h, 0)
		d.Line(x, y+h, 0, x, y, 0)
	}
	// Page drawn at an offset origin, two 90 x 50 labels side by side
	rect(100, 100, 210, 297)
	rect(110, 100+297-20-50, 90, 50)
	rect(210, 100+297-20-50, 90, 50)
	// A small registration mark of another size
	rect(105, 105, 5, 5)

	path := filepath.Join(t.TempDir(), "vendor.dxf")
	if err := d.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	base := model.DefaultCalibrationParams()
	result, err := ImportSheetTemplate(path, base)
	if err != nil {
		t.Fatalf("ImportSheetTemplate failed: %v", err)
	}
	p := result.Params
	if p.Rows != 1 || p.Cols != 2 {
		t.Errorf("expected 1x2 grid, got %dx%d", p.Rows, p.Cols)
	}
	if math.Abs(p.LabelWidth-90) > 0.01 || math.Abs(p.LabelHeight-50) > 0.01 {
		t.Errorf("expected 90x50 labels, got %.2fx%.2f", p.LabelWidth, p.LabelHeight)
	}
	if math.Abs(p.ColGap-10) > 0.01 {
		t.Errorf("expected column gap 10, got %.2f", p.ColGap)
	}
	if math.Abs(p.SheetOffsetLeft-(10-base.HWMarginLeft)) > 0.01 {
		t.Errorf("expected left offset %.2f, got %.2f", 10-base.HWMarginLeft, p.SheetOffsetLeft)
	}
	if math.Abs(p.SheetOffsetTop-(20-base.HWMarginTop)) > 0.01 {
		t.Errorf("expected top offset %.2f, got %.2f", 20-base.HWMarginTop, p.SheetOffsetTop)
	}
	if p.RowGap != base.RowGap {
		t.Errorf("expected single-row sheet to keep base row gap, got %.2f", p.RowGap)
	}

	var sawPage, sawIgnored bool
	for _, w := range result.Warnings {
		sawPage = sawPage || strings.Contains(w, "page outline")
		sawIgnored = sawIgnored || strings.Contains(w, "Ignored 1")
	}
	if !sawPage || !sawIgnored {
		t.Errorf("expected page and ignored-shape warnings, got %v", result.Warnings)
	}
}

func TestImportSheetTemplate_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dxf")
	if err := dxf.NewDrawing().SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_, err := ImportSheetTemplate(path, model.DefaultCalibrationParams())
	if !errors.Is(err, ErrNoLabels) {
		t.Errorf("expected ErrNoLabels, got %v", err)
	}
}

func TestImportSheetTemplate_MissingFile(t *testing.T) {
	if _, err := ImportSheetTemplate(filepath.Join(t.TempDir(), "none.dxf"), model.DefaultCalibrationParams()); err == nil {
		t.Error("expected error for missing file")
	}
}
