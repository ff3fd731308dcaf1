// Package fixtures holds a sample vendor export used by the stub API and by
// dry runs.
package fixtures

import (
	_ "embed"
	"strings"
	"time"
)

//go:embed export.csv
var exportTemplate string

const datePlaceholder = "{{date}}"

// Export returns the sample export with every timestamp moved to day.
func Export(day time.Time) []byte {
	return []byte(strings.ReplaceAll(exportTemplate, datePlaceholder, day.Format("02/01/2006")))
}
