package report

import "errors"

// Report domain errors
var (
	ErrNoOutputDir   = errors.New("report output directory is not set")
	ErrArchiveFailed = errors.New("failed to archive daily report")
)
