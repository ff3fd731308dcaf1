package workbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestPath(t *testing.T) {
	store := NewExcelStore("/data/relatorios")
	assert.Equal(t,
		filepath.Join("/data/relatorios", "2024", "03-Março", "2024-03.xlsx"),
		store.Path(2024, time.March))
}

func TestHeader(t *testing.T) {
	h := Header(29)
	require.Len(t, h, 32)
	assert.Equal(t, HeaderTechnician, h[0])
	assert.Equal(t, "1", h[1])
	assert.Equal(t, "29", h[29])
	assert.Equal(t, HeaderTotal, h[30])
	assert.Equal(t, HeaderBelowMinDay, h[31])
}

func TestLoad_NotFound(t *testing.T) {
	store := NewExcelStore(t.TempDir())
	_, err := store.Load(context.Background(), 2024, time.March)
	assert.ErrorIs(t, err, monthly.ErrSheetNotFound)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())

	sheet := monthly.NewSheet(2024, time.March)
	_, _, err := sheet.Set("Ana Souza", 1, 480)
	require.NoError(t, err)
	_, _, err = sheet.Set("Ana Souza", 4, 200)
	require.NoError(t, err)
	_, _, err = sheet.Set("João", 31, 35)
	require.NoError(t, err)
	sheet.Recompute(func(string) int { return 240 })

	require.NoError(t, store.Save(ctx, sheet))

	loaded, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, sheet.Values(), loaded.Values())

	entries, err := os.ReadDir(filepath.Dir(store.Path(2024, time.March)))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSave_WritesDerivedColumns(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())

	sheet := monthly.NewSheet(2024, time.February)
	_, _, _ = sheet.Set("Bruno", 1, 100)
	_, _, _ = sheet.Set("Bruno", 2, 300)
	sheet.Recompute(func(string) int { return 240 })
	require.NoError(t, store.Save(ctx, sheet))

	f, err := excelize.OpenFile(store.Path(2024, time.February))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[1], 32)
	assert.Equal(t, "Bruno", rows[1][0])
	assert.Equal(t, "01:40", rows[1][1])
	assert.Equal(t, "05:00", rows[1][2])
	assert.Equal(t, "", rows[1][3])
	assert.Equal(t, "06:40", rows[1][30])
	assert.Equal(t, "1", rows[1][31])
}

func TestLoad_SchemaMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())
	path := store.Path(2024, time.March)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	cases := map[string]func(f *excelize.File){
		"missing sheet": func(f *excelize.File) {
			_ = f.SetCellValue("Sheet1", "A1", HeaderTechnician)
		},
		"short header": func(f *excelize.File) {
			_ = f.SetSheetName("Sheet1", SheetName)
			row := []interface{}{HeaderTechnician, "1", "2"}
			_ = f.SetSheetRow(SheetName, "A1", &row)
		},
		"bad duration": func(f *excelize.File) {
			_ = f.SetSheetName("Sheet1", SheetName)
			header := Header(31)
			row := make([]interface{}, len(header))
			for i, h := range header {
				row[i] = h
			}
			_ = f.SetSheetRow(SheetName, "A1", &row)
			_ = f.SetCellValue(SheetName, "A2", "Ana")
			_ = f.SetCellValue(SheetName, "B2", "oito horas")
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			f := excelize.NewFile()
			build(f)
			require.NoError(t, f.SaveAs(path))
			require.NoError(t, f.Close())

			_, err := store.Load(ctx, 2024, time.March)
			assert.ErrorIs(t, err, monthly.ErrSchemaMismatch)
		})
	}
}

func TestLoad_MergesDuplicateRows(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())
	path := store.Path(2024, time.March)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetName))
	header := Header(31)
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	require.NoError(t, f.SetSheetRow(SheetName, "A1", &row))
	require.NoError(t, f.SetSheetRow(SheetName, "A2", &[]interface{}{"José Silva", "01:00", nil}))
	require.NoError(t, f.SetSheetRow(SheetName, "A3", &[]interface{}{"jose  silva", "09:00", "02:00"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sheet, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)

	r, ok := sheet.Row("JOSE SILVA")
	require.True(t, ok)
	assert.Equal(t, "José Silva", r.Technician)
	assert.Equal(t, map[int]int{1: 60, 2: 120}, r.Days)
}

func TestSave_KeepsOtherSheets(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())
	path := store.Path(2024, time.March)

	sheet := monthly.NewSheet(2024, time.March)
	_, _, err := sheet.Set("Ana", 4, 300)
	require.NoError(t, err)
	sheet.Recompute(func(string) int { return 240 })
	require.NoError(t, store.Save(ctx, sheet))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	_, err = f.NewSheet("Notas")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notas", "A1", "Feriado no dia 29"))
	require.NoError(t, f.SetCellValue(SheetName, "AK2", "conferido"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	loaded, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	_, _, err = loaded.Set("Ana", 5, 100)
	require.NoError(t, err)
	loaded.Recompute(func(string) int { return 240 })
	require.NoError(t, store.Save(ctx, loaded))

	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetName, "Notas"}, f.GetSheetList())
	note, err := f.GetCellValue("Notas", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Feriado no dia 29", note)
	mark, err := f.GetCellValue(SheetName, "AK2")
	require.NoError(t, err)
	assert.Equal(t, "conferido", mark)

	day5, err := f.GetCellValue(SheetName, "F2")
	require.NoError(t, err)
	assert.Equal(t, "01:40", day5)

	again, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[int]int{"Ana": {4: 300, 5: 100}}, again.Values())
}

func TestSave_ClearsMergedRows(t *testing.T) {
	ctx := context.Background()
	store := NewExcelStore(t.TempDir())
	path := store.Path(2024, time.March)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetName))
	header := Header(31)
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	require.NoError(t, f.SetSheetRow(SheetName, "A1", &row))
	require.NoError(t, f.SetSheetRow(SheetName, "A2", &[]interface{}{"José Silva", "01:00"}))
	require.NoError(t, f.SetSheetRow(SheetName, "A3", &[]interface{}{"jose silva", nil, "02:00"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sheet, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	sheet.Recompute(func(string) int { return 240 })
	require.NoError(t, store.Save(ctx, sheet))

	saved, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer saved.Close()
	rows, err := saved.GetRows(SheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "José Silva", rows[1][0])
	if len(rows) > 2 {
		assert.False(t, hasValues(rows[2]), "stale duplicate row must be blanked")
	}

	reloaded, err := store.Load(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[int]int{"José Silva": {1: 60, 2: 120}}, reloaded.Values())
}
