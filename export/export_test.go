package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/pipeline"
)

const fixture = `id,post_created_time,side,sentiment,clean_text
1,2024-11-05T10:00:00Z,rusia,Positive,"good, news"
2,2024-11-06 08:30:00,Ukraine,Negative,
3,2024-11-06 21:15:00,Russia,Positive,good news too
`

func view(t *testing.T, side string) pipeline.View {
	t.Helper()
	ds, err := dataset.Parse("test", strings.NewReader(fixture))
	require.NoError(t, err)
	p := pipeline.DefaultParams(ds)
	p.Side = side
	return pipeline.NewFilter(zerolog.Nop()).Apply(ds, p)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, view(t, "All")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "post_created_time", "side", "sentiment", "clean_text"},
		{"1", "2024-11-05 10:00:00", "Russia", "Positive", "good, news"},
		{"2", "2024-11-06 08:30:00", "Ukraine", "Negative", ""},
		{"3", "2024-11-06 21:15:00", "Russia", "Positive", "good news too"},
	}, records)
}

func TestWriteCSV_FilteredRowsOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, view(t, "Ukraine")))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, view(t, "USA")), pipeline.ErrEmptyResult)
	assert.ErrorIs(t, WriteXLSX(&buf, view(t, "USA")), pipeline.ErrEmptyResult)
	assert.Zero(t, buf.Len())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, view(t, "Russia")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "post_created_time", "side", "sentiment", "clean_text"}, rows[0])
	assert.Equal(t, []string{"1", "2024-11-05 10:00:00", "Russia", "Positive", "good, news"}, rows[1])
	assert.Equal(t, "3", rows[2][0])
}

func TestFormatTimestamp(t *testing.T) {
	const withOffset = `post_created_time,side,sentiment,clean_text
2024-11-05 10:00:00.25+02:00,Russia,Positive,a
2024-11-05 10:00:00-05:30,Russia,Positive,b
2024-11-06 08:30:00,Ukraine,Negative,c
`
	ds, err := dataset.Parse("test", strings.NewReader(withOffset))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, pipeline.All(ds)))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "2024-11-05 10:00:00.25+02:00", records[1][0])
	assert.Equal(t, "2024-11-05 10:00:00-05:30", records[2][0])
	assert.Equal(t, "2024-11-06 08:30:00", records[3][0])
}
