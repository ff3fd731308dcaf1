// Package workbook stores monthly sheets as .xlsx files, one file per month:
//
//	<base>/<YYYY>/<MM>-<Month>/<YYYY>-<MM>.xlsx
//
// The job owns the sheet named "Horas"; any other sheet in the file is kept
// as-is. Row 1 is the header
// (Técnico, 1..N, Total, Dias abaixo do mínimo), then one row per technician
// with HH:MM text in the day cells. Empty day cells mean "no data".
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName         = "Horas"
	HeaderTechnician  = "Técnico"
	HeaderTotal       = "Total"
	HeaderBelowMinDay = "Dias abaixo do mínimo"
)

type ExcelStore struct {
	baseDir string
}

func NewExcelStore(baseDir string) *ExcelStore {
	return &ExcelStore{baseDir: baseDir}
}

func (s *ExcelStore) Path(year int, month time.Month) string {
	file := fmt.Sprintf("%04d-%02d.xlsx", year, int(month))
	return filepath.Join(s.baseDir, filepath.FromSlash(monthly.Folder(year, month)), file)
}

// Header returns the expected header row for a month.
func Header(days int) []string {
	header := make([]string, 0, days+3)
	header = append(header, HeaderTechnician)
	for d := 1; d <= days; d++ {
		header = append(header, strconv.Itoa(d))
	}
	return append(header, HeaderTotal, HeaderBelowMinDay)
}

func (s *ExcelStore) Load(ctx context.Context, year int, month time.Month) (*monthly.Sheet, error) {
	path := s.Path(year, month)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, monthly.ErrSheetNotFound
		}
		return nil, fmt.Errorf("failed to stat workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", monthly.ErrSchemaMismatch, path, err)
	}
	defer f.Close()

	index, err := f.GetSheetIndex(SheetName)
	if err != nil || index < 0 {
		return nil, fmt.Errorf("%w: sheet %q not found in %s", monthly.ErrSchemaMismatch, SheetName, path)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}

	sheet := monthly.NewSheet(year, month)
	days := sheet.DaysInMonth()

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: header row is missing", monthly.ErrSchemaMismatch)
	}
	if err := checkHeader(rows[0], days); err != nil {
		return nil, err
	}

	for i, cells := range rows[1:] {
		rowNum := i + 2
		if len(cells) == 0 || names.Clean(cells[0]) == "" {
			if hasValues(cells) {
				return nil, fmt.Errorf("%w: row %d has values but no technician", monthly.ErrSchemaMismatch, rowNum)
			}
			continue
		}

		row, _ := sheet.Locate(cells[0])
		for d := 1; d <= days && d < len(cells); d++ {
			value := strings.TrimSpace(cells[d])
			if value == "" {
				continue
			}
			minutes, err := hhmm.Parse(value)
			if err != nil {
				cell, _ := excelize.CoordinatesToCellName(d+1, rowNum)
				return nil, fmt.Errorf("%w: cell %s holds %q, expected HH:MM", monthly.ErrSchemaMismatch, cell, value)
			}
			// Rows that collapse to one technician are merged; the first one wins.
			if _, exists := row.Days[d]; !exists {
				row.Days[d] = minutes
			}
		}
	}

	return sheet, nil
}

func checkHeader(got []string, days int) error {
	want := Header(days)
	if len(got) != len(want) {
		return fmt.Errorf("%w: header has %d columns, expected %d", monthly.ErrSchemaMismatch, len(got), len(want))
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			return fmt.Errorf("%w: header %s is %q, expected %q", monthly.ErrSchemaMismatch, cell, got[i], want[i])
		}
	}
	return nil
}

func hasValues(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

// Save writes the sheet into the month's workbook, writes it next to the target
// and renames it into place. An existing workbook is opened and only the
// "Horas" cells are rewritten, so other sheets, styles and notes survive.
func (s *ExcelStore) Save(ctx context.Context, sheet *monthly.Sheet) error {
	path := s.Path(sheet.Year, sheet.Month)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create workbook directory: %w", err)
	}

	f, created, err := openForWrite(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeSheet(f, sheet, created); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp workbook: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.WriteTo(tmp); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	committed = true

	return nil
}

// openForWrite opens the existing workbook, or starts a new one with a single
// "Horas" sheet when the month has none yet.
func openForWrite(path string) (f *excelize.File, created bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
			f.Close()
			return nil, false, fmt.Errorf("failed to name sheet: %w", err)
		}
		return f, true, nil
	}

	f, err = excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: cannot open %s: %v", monthly.ErrSchemaMismatch, path, err)
	}
	if index, err := f.GetSheetIndex(SheetName); err != nil || index < 0 {
		f.Close()
		return nil, false, fmt.Errorf("%w: sheet %q not found in %s", monthly.ErrSchemaMismatch, SheetName, path)
	}
	return f, false, nil
}

// writeSheet rewrites the header and technician rows of "Horas". Rows left
// over from a longer previous layout (merged duplicates) are blanked across the
// managed columns; anything to the right of them is left alone.
func writeSheet(f *excelize.File, sheet *monthly.Sheet, created bool) error {
	previous, err := f.GetRows(SheetName)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}

	days := sheet.DaysInMonth()
	header := Header(days)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	ordered := sheet.Ordered()
	for i, row := range ordered {
		values := make([]interface{}, len(header))
		values[0] = row.Technician
		for d := 1; d <= days; d++ {
			if minutes, ok := row.Days[d]; ok {
				values[d] = hhmm.Format(minutes)
			} else {
				values[d] = nil
			}
		}
		values[days+1] = hhmm.Format(row.TotalMinutes)
		values[days+2] = row.BelowMinimumDays

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.Technician, err)
		}
	}

	for r := len(ordered) + 2; r <= len(previous); r++ {
		blank := make([]interface{}, len(header))
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &blank); err != nil {
			return fmt.Errorf("failed to clear row %d: %w", r, err)
		}
	}

	if !created {
		return nil
	}

	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return err
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}
