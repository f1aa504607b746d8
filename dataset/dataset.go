package dataset

import (
	"time"

	"sentiment-dashboard/models"
)

// Dataset is the loaded, normalized comment table. It is never modified after
// Parse returns; filters refer to its rows by index.
type Dataset struct {
	sourceID     string
	loadedAt     time.Time
	columns      []string
	records      []models.Comment
	minDay       time.Time
	maxDay       time.Time
	unknownSides map[string]int
}

// New builds a dataset from already normalized records. columns is the
// export column order; it must include the required columns.
func New(sourceID string, columns []string, records []models.Comment) *Dataset {
	ds := &Dataset{
		sourceID:     sourceID,
		loadedAt:     time.Now(),
		columns:      append([]string(nil), columns...),
		records:      records,
		unknownSides: map[string]int{},
	}
	for i := range records {
		day := Day(records[i].PostCreatedTime)
		if i == 0 || day.Before(ds.minDay) {
			ds.minDay = day
		}
		if i == 0 || day.After(ds.maxDay) {
			ds.maxDay = day
		}
		if !IsCanonicalSide(records[i].Side) {
			ds.unknownSides[records[i].Side]++
		}
	}
	return ds
}

func (d *Dataset) SourceID() string { return d.sourceID }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
func (d *Dataset) Len() int { return len(d.records) }

// Columns returns the column order used for export.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// At returns a pointer into the dataset; callers must not modify it.
func (d *Dataset) At(i int) *models.Comment { return &d.records[i] }

// DateBounds returns the first and last calendar day present.
func (d *Dataset) DateBounds() (min, max time.Time, ok bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.minDay, d.maxDay, true
}

// UnknownSides counts side values that did not normalize to a canonical side.
func (d *Dataset) UnknownSides() map[string]int {
	out := make(map[string]int, len(d.unknownSides))
	for k, v := range d.unknownSides {
		out[k] = v
	}
	return out
}

// Day truncates t to its calendar day in t's own location, returned as
// midnight UTC so days compare with Before/After/Equal.
func Day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}
