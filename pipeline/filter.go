// Package pipeline filters the loaded comment table and derives the views the
// dashboard renders from it.
package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/models"
)

// ErrEmptyResult marks a view with no rows. It is an expected state, not a
// failure: sinks that cannot produce output for it return this error.
var ErrEmptyResult = errors.New("no data for the selected filters")

// Params is one snapshot of the filter controls. A zero From or To leaves
// that end of the range open.
type Params struct {
	Sentiments []string
	Side       string
	From       time.Time
	To         time.Time
	Keyword    string
}

// DefaultParams selects every row of ds: all sentiments, every side, the full
// date range and no keyword.
func DefaultParams(ds *dataset.Dataset) Params {
	p := Params{Sentiments: models.Sentiments(), Side: models.SideAll}
	if min, max, ok := ds.DateBounds(); ok {
		p.From, p.To = min, max
	}
	return p
}

// View is a filtered selection of dataset rows, in dataset order.
type View struct {
	ds   *dataset.Dataset
	rows []int
}

func (v View) Len() int { return len(v.rows) }
func (v View) Empty() bool { return len(v.rows) == 0 }
func (v View) Dataset() *dataset.Dataset { return v.ds }
func (v View) At(i int) *models.Comment { return v.ds.At(v.rows[i]) }
func (v View) Index(i int) int { return v.rows[i] }

// Filter applies Params to a dataset.
type Filter struct {
	log zerolog.Logger
}

// NewFilter creates a filter that reports per-stage row counts at debug level.
func NewFilter(log zerolog.Logger) *Filter {
	return &Filter{log: log}
}

// Apply runs the predicates in order: sentiment membership, side, calendar
// day range, keyword. ds is never modified.
func (f *Filter) Apply(ds *dataset.Dataset, p Params) View {
	p = p.snapshot()
	trace := f.log.Debug().Int("input", ds.Len())

	allowed := make(map[string]struct{}, len(p.Sentiments))
	for _, s := range p.Sentiments {
		allowed[s] = struct{}{}
	}
	rows := make([]int, 0, ds.Len())
	if len(allowed) > 0 {
		for i := 0; i < ds.Len(); i++ {
			if _, ok := allowed[ds.At(i).Sentiment]; ok {
				rows = append(rows, i)
			}
		}
	}
	trace = trace.Int("after_sentiment", len(rows))

	if p.Side != "" && p.Side != models.SideAll {
		rows = keep(ds, rows, func(c *models.Comment) bool { return c.Side == p.Side })
		trace = trace.Int("after_side", len(rows))
	}

	if !p.From.IsZero() || !p.To.IsZero() {
		from, to := dataset.Day(p.From), dataset.Day(p.To)
		rows = keep(ds, rows, func(c *models.Comment) bool {
			day := dataset.Day(c.PostCreatedTime)
			if !p.From.IsZero() && day.Before(from) {
				return false
			}
			if !p.To.IsZero() && day.After(to) {
				return false
			}
			return true
		})
		trace = trace.Int("after_dates", len(rows))
	}

	if p.Keyword != "" {
		fold := cases.Fold()
		needle := fold.String(p.Keyword)
		rows = keep(ds, rows, func(c *models.Comment) bool {
			text, ok := c.Text()
			return ok && strings.Contains(fold.String(text), needle)
		})
		trace = trace.Int("after_keyword", len(rows))
	}

	trace.Str("side", p.Side).Strs("sentiments", p.Sentiments).Str("keyword", p.Keyword).Msg("filter applied")
	return View{ds: ds, rows: rows}
}

// snapshot copies the slice so later changes by the caller cannot leak in.
func (p Params) snapshot() Params {
	p.Sentiments = append([]string(nil), p.Sentiments...)
	return p
}

func keep(ds *dataset.Dataset, rows []int, pred func(*models.Comment) bool) []int {
	out := rows[:0]
	for _, i := range rows {
		if pred(ds.At(i)) {
			out = append(out, i)
		}
	}
	return out
}

// All returns a view over every row of ds.
func All(ds *dataset.Dataset) View {
	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return View{ds: ds, rows: rows}
}
