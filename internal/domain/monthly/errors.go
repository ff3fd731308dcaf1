package monthly

import "errors"

// Monthly workbook domain errors
var (
	ErrSheetNotFound  = errors.New("monthly workbook not found")
	ErrSchemaMismatch = errors.New("monthly workbook layout does not match the expected schema")
	ErrSheetLocked    = errors.New("monthly workbook is locked by another run")
	ErrDayOutOfRange  = errors.New("day is outside the workbook month")
	ErrWrongMonth     = errors.New("aggregate day does not belong to the workbook month")
)
