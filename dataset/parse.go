package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"sentiment-dashboard/models"
)

// timestampLayouts are tried in order for post_created_time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// nullMarkers are the cell values treated as a missing clean_text.
var nullMarkers = map[string]struct{}{
	"": {}, "NaN": {}, "nan": {}, "NA": {}, "N/A": {}, "n/a": {}, "<NA>": {},
	"NULL": {}, "null": {}, "None": {}, "#N/A": {},
}

// ParseTimestamp parses an ISO-like datetime string.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Parse reads a CSV comment table. The header must name every required
// column; a bad header, a malformed row or an unparseable timestamp fails the
// whole parse.
func Parse(sourceID string, r io.Reader) (*Dataset, error) {
	return parse(sourceID, r, 1)
}

// parse keeps every n-th data row (n <= 1 keeps all of them).
func parse(sourceID string, r io.Reader, every int) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, loadErr(sourceID, "read header", errors.New("empty input"))
	}
	if err != nil {
		return nil, loadErr(sourceID, "read header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		index[header[i]] = i
	}
	var missing []string
	for _, col := range models.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, loadErr(sourceID, "check columns", fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	cell := func(row []string, col string) string {
		if i := index[col]; i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []models.Comment
	for n := 0; ; n++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, loadErr(sourceID, "read row", err)
		}
		if every > 1 && n%every != 0 {
			continue
		}

		line, _ := cr.FieldPos(0)
		ts, err := ParseTimestamp(cell(row, models.ColPostCreatedTime))
		if err != nil {
			return nil, loadErr(sourceID, fmt.Sprintf("parse %s on line %d", models.ColPostCreatedTime, line), err)
		}

		c := models.Comment{
			PostCreatedTime: ts,
			Side:            NormalizeSide(cell(row, models.ColSide)),
			Sentiment:       strings.TrimSpace(cell(row, models.ColSentiment)),
		}
		if text := cell(row, models.ColCleanText); !isNull(text) {
			c.CleanText = &text
		}
		for i, name := range header {
			if isRequired(name) || i >= len(row) {
				continue
			}
			if c.Extra == nil {
				c.Extra = make(map[string]string, len(header)-len(models.RequiredColumns()))
			}
			c.Extra[name] = row[i]
		}
		records = append(records, c)
	}

	return New(sourceID, header, records), nil
}

func isNull(s string) bool {
	_, ok := nullMarkers[strings.TrimSpace(s)]
	return ok
}

func isRequired(col string) bool {
	switch col {
	case models.ColPostCreatedTime, models.ColSide, models.ColSentiment, models.ColCleanText:
		return true
	}
	return false
}
