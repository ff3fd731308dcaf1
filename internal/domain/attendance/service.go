package attendance

import (
	"context"
	"time"
)

// Source fetches the raw export for one business day. On a truncated payload it
// returns the rows read so far together with an error wrapping ErrPartialPayload.
type Source interface {
	Fetch(ctx context.Context, day time.Time) ([]RawRecord, error)
}

// Normalizer validates raw rows. Rejected rows are returned alongside the valid
// ones so the caller decides how loud to be about them.
type Normalizer interface {
	Normalize(raw []RawRecord) (records []Record, rejected []*RecordError)
}

// Aggregator sums validated records into one total per technician.
type Aggregator interface {
	Aggregate(day time.Time, records []Record) *DailyAggregate
}
