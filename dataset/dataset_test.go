package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-dashboard/models"
)

const sampleCSV = `id,post_created_time,side,sentiment,clean_text
1,2024-11-05 10:00:00,russia,Positive,good news
2,2024-11-06 08:30:00,UKRAINA,Negative,bad situation
3,2024-11-06 21:15:00,Rusia,Positive,good news too
4,2024-11-07T12:00:00Z,usa,Neutral,
5,2024-11-08,Belarus,Neutral,no side
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comments.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeSide(t *testing.T) {
	cases := map[string]string{
		"russia":  "Russia",
		"RUSSIA":  "Russia",
		"rusia":   "Russia",
		"RUSIA":   "Russia",
		"Rusia":   "Russia",
		"ukraina": "Ukraine",
		"UKRAINA": "Ukraine",
		"ukraine": "Ukraine",
		"usa":     "USA",
		"USA":     "USA",
		"belarus": "Belarus",
		" usa ":   "USA",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSide(in), "input %q", in)
	}
}

func TestNormalizeSide_Idempotent(t *testing.T) {
	for _, in := range []string{"rusia", "UKRAINA", "usa", "Russia", "Ukraine", "USA", "north korea", ""} {
		once := NormalizeSide(in)
		assert.Equal(t, once, NormalizeSide(once), "input %q", in)
	}
}

func TestParse(t *testing.T) {
	ds, err := Parse("test", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 5, ds.Len())

	assert.Equal(t, []string{"id", "post_created_time", "side", "sentiment", "clean_text"}, ds.Columns())

	first := ds.At(0)
	assert.Equal(t, time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC), first.PostCreatedTime)
	assert.Equal(t, models.SideRussia, first.Side)
	assert.Equal(t, models.SentimentPositive, first.Sentiment)
	text, ok := first.Text()
	assert.True(t, ok)
	assert.Equal(t, "good news", text)
	assert.Equal(t, "1", first.Extra["id"])

	assert.Equal(t, models.SideUkraine, ds.At(1).Side)
	assert.Equal(t, models.SideRussia, ds.At(2).Side)
	assert.Equal(t, models.SideUSA, ds.At(3).Side)
	assert.Nil(t, ds.At(3).CleanText)
	assert.Equal(t, "Belarus", ds.At(4).Side)

	assert.Equal(t, map[string]int{"Belarus": 1}, ds.UnknownSides())

	min, max, ok := ds.DateBounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), min)
	assert.Equal(t, time.Date(2024, 11, 8, 0, 0, 0, 0, time.UTC), max)
}

func TestParse_NormalizationIsStableOnReload(t *testing.T) {
	ds, err := Parse("a", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("post_created_time,side,sentiment,clean_text\n")
	for i := 0; i < ds.Len(); i++ {
		c := ds.At(i)
		b.WriteString(c.PostCreatedTime.Format(time.RFC3339) + "," + c.Side + "," + c.Sentiment + ",x\n")
	}
	again, err := Parse("b", strings.NewReader(b.String()))
	require.NoError(t, err)
	for i := 0; i < ds.Len(); i++ {
		assert.Equal(t, ds.At(i).Side, again.At(i).Side)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty input", input: "", want: "empty input"},
		{
			name:  "missing columns",
			input: "post_created_time,side\n2024-11-05,Russia\n",
			want:  "missing required columns: sentiment, clean_text",
		},
		{
			name:  "bad timestamp",
			input: "post_created_time,side,sentiment,clean_text\n2024-11-05,Russia,Positive,a\nyesterday,Russia,Positive,b\n",
			want:  "line 3",
		},
		{
			name:  "empty timestamp",
			input: "post_created_time,side,sentiment,clean_text\n,Russia,Positive,a\n",
			want:  "empty timestamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Parse("src", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, ds)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "src", le.Source)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_TimestampLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-11-05T10:00:00Z",
		"2024-11-05T10:00:00.123456+02:00",
		"2024-11-05 10:00:00+00:00",
		"2024-11-05 10:00:00.5",
		"2024-11-05T10:00:00",
		"2024-11-05 10:00",
		"2024-11-05",
	} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year(), s)
		assert.Equal(t, time.November, ts.Month(), s)
		assert.Equal(t, 5, ts.Day(), s)
	}
}

func TestSampledSource(t *testing.T) {
	path := writeFile(t, sampleCSV)

	ds, err := SampledSource{Path: path, Every: 2}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "1", ds.At(0).Extra["id"])
	assert.Equal(t, "3", ds.At(1).Extra["id"])
	assert.Equal(t, "5", ds.At(2).Extra["id"])

	all, err := SampledSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, all.Len())
}

func TestFileSource_Missing(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "none.csv")}.Load(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "open", le.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemoteSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "cache", "dataset.csv")
	src := RemoteSource{URL: srv.URL + "/dataset.csv", CachePath: cachePath, Client: srv.Client()}

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())

	saved, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(saved))

	_, err = RemoteSource{URL: srv.URL + "/missing", CachePath: cachePath, Client: srv.Client()}.Load(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "download", le.Op)
	assert.Contains(t, err.Error(), "404")
}

type countingSource struct {
	id    string
	calls atomic.Int32
	fail  atomic.Bool
}

func (s *countingSource) ID() string { return s.id }

func (s *countingSource) Load(context.Context) (*Dataset, error) {
	s.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	if s.fail.Load() {
		return nil, &LoadError{Source: s.id, Op: "fetch", Err: errors.New("boom")}
	}
	return Parse(s.id, strings.NewReader(sampleCSV))
}

type recordingObserver struct {
	mu    sync.Mutex
	loads []error
}

func (o *recordingObserver) ObserveLoad(_ string, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	o.loads = append(o.loads, err)
	o.mu.Unlock()
}

func TestCache_LoadsOnce(t *testing.T) {
	obs := &recordingObserver{}
	cache := NewCache(zerolog.Nop(), obs)
	src := &countingSource{id: "s1"}

	var wg sync.WaitGroup
	results := make([]*Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.Get(context.Background(), src)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	again, err := cache.Get(context.Background(), src)
	require.NoError(t, err)

	assert.EqualValues(t, 1, src.calls.Load())
	for _, ds := range results {
		assert.Same(t, again, ds)
	}
	assert.Len(t, obs.loads, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_InvalidateReloads(t *testing.T) {
	cache := NewCache(zerolog.Nop(), nil)
	src := &countingSource{id: "s1"}

	first, err := cache.Get(context.Background(), src)
	require.NoError(t, err)

	cache.Invalidate("s1")
	second, err := cache.Get(context.Background(), src)
	require.NoError(t, err)

	assert.EqualValues(t, 2, src.calls.Load())
	assert.NotSame(t, first, second)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache := NewCache(zerolog.Nop(), nil)
	src := &countingSource{id: "s1"}
	src.fail.Store(true)

	_, err := cache.Get(context.Background(), src)
	var le *LoadError
	require.ErrorAs(t, err, &le)

	src.fail.Store(false)
	ds, err := cache.Get(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
	assert.EqualValues(t, 2, src.calls.Load())
}

// gatedSource blocks every Load until release is closed or its context ends.
type gatedSource struct {
	id      string
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newGatedSource(id string) *gatedSource {
	return &gatedSource{id: id, started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (s *gatedSource) ID() string { return s.id }

func (s *gatedSource) Load(ctx context.Context) (*Dataset, error) {
	s.calls.Add(1)
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, &LoadError{Source: s.id, Op: "download", Err: ctx.Err()}
	}
	return Parse(s.id, strings.NewReader(sampleCSV))
}

func TestCache_CallerCancelDoesNotFailSharedLoad(t *testing.T) {
	cache := NewCache(zerolog.Nop(), nil)
	src := newGatedSource("slow")

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx, src)
		firstErr <- err
	}()
	<-src.started

	type result struct {
		ds  *Dataset
		err error
	}
	second := make(chan result, 1)
	go func() {
		ds, err := cache.Get(context.Background(), src)
		second <- result{ds, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 5, res.ds.Len())
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_LoadTimeout(t *testing.T) {
	cache := NewCache(zerolog.Nop(), nil)
	cache.LoadTimeout = 20 * time.Millisecond
	src := newGatedSource("stuck")

	_, err := cache.Get(context.Background(), src)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_InvalidateDuringLoadKeepsFreshResult(t *testing.T) {
	cache := NewCache(zerolog.Nop(), nil)
	src := newGatedSource("s1")

	stale := make(chan *Dataset, 1)
	go func() {
		ds, err := cache.Get(context.Background(), src)
		assert.NoError(t, err)
		stale <- ds
	}()
	<-src.started

	cache.Invalidate("s1")
	fresh := make(chan *Dataset, 1)
	go func() {
		ds, err := cache.Get(context.Background(), src)
		assert.NoError(t, err)
		fresh <- ds
	}()
	<-src.started

	close(src.release)
	oldDS, newDS := <-stale, <-fresh
	require.NotNil(t, oldDS)
	require.NotNil(t, newDS)
	assert.NotSame(t, oldDS, newDS)

	cached, err := cache.Get(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, newDS, cached)
	assert.EqualValues(t, 2, src.calls.Load())
}
