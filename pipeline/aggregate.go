package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/models"
)

// Count is one slice of the sentiment pie.
type Count struct {
	Sentiment string  `json:"sentiment"`
	N         int     `json:"count"`
	Percent   float64 `json:"percent"`
}

// Counts is ordered by descending N; ties keep first-seen order.
type Counts []Count

func (c Counts) Empty() bool { return len(c) == 0 }

// Total sums the counts.
func (c Counts) Total() int {
	total := 0
	for _, x := range c {
		total += x.N
	}
	return total
}

// SentimentCounts counts rows per sentiment value present in v.
func SentimentCounts(v View) Counts {
	if v.Empty() {
		return nil
	}
	pos := map[string]int{}
	var out Counts
	for i := 0; i < v.Len(); i++ {
		s := v.At(i).Sentiment
		if j, ok := pos[s]; ok {
			out[j].N++
			continue
		}
		pos[s] = len(out)
		out = append(out, Count{Sentiment: s, N: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	for i := range out {
		out[i].Percent = math.Round(float64(out[i].N)*1000/float64(v.Len())) / 10
	}
	return out
}

// Trend is the day by sentiment pivot behind the time-series chart.
// Counts[d][s] is the number of rows on Days[d] with Sentiments[s].
type Trend struct {
	Days       []time.Time `json:"days"`
	Sentiments []string    `json:"sentiments"`
	Counts     [][]int     `json:"counts"`
}

func (t Trend) Empty() bool { return len(t.Days) == 0 }

// Row returns the per-sentiment counts for day, or nil if day is absent.
func (t Trend) Row(day time.Time) map[string]int {
	for d, x := range t.Days {
		if x.Equal(day) {
			row := make(map[string]int, len(t.Sentiments))
			for s, name := range t.Sentiments {
				row[name] = t.Counts[d][s]
			}
			return row
		}
	}
	return nil
}

// DailyTrend pivots v into calendar days (ascending) by sentiment columns
// (sorted), zero filling missing combinations.
func DailyTrend(v View) Trend {
	if v.Empty() {
		return Trend{}
	}
	type key struct {
		day       time.Time
		sentiment string
	}
	cells := map[key]int{}
	days := map[time.Time]struct{}{}
	sentiments := map[string]struct{}{}
	for i := 0; i < v.Len(); i++ {
		c := v.At(i)
		k := key{day: dataset.Day(c.PostCreatedTime), sentiment: c.Sentiment}
		cells[k]++
		days[k.day] = struct{}{}
		sentiments[k.sentiment] = struct{}{}
	}

	t := Trend{
		Days:       make([]time.Time, 0, len(days)),
		Sentiments: make([]string, 0, len(sentiments)),
	}
	for d := range days {
		t.Days = append(t.Days, d)
	}
	sort.Slice(t.Days, func(i, j int) bool { return t.Days[i].Before(t.Days[j]) })
	for s := range sentiments {
		t.Sentiments = append(t.Sentiments, s)
	}
	sort.Strings(t.Sentiments)

	t.Counts = make([][]int, len(t.Days))
	for d, day := range t.Days {
		t.Counts[d] = make([]int, len(t.Sentiments))
		for s, name := range t.Sentiments {
			t.Counts[d][s] = cells[key{day: day, sentiment: name}]
		}
	}
	return t
}

// TextBlob joins every present clean_text in v with single spaces.
func TextBlob(v View) string {
	var b strings.Builder
	first := true
	for i := 0; i < v.Len(); i++ {
		text, ok := v.At(i).Text()
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		first = false
	}
	return b.String()
}

// Preview returns up to n rows of v in order.
func Preview(v View, n int) []models.Comment {
	if n > v.Len() {
		n = v.Len()
	}
	if n < 0 {
		n = 0
	}
	out := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, *v.At(i))
	}
	return out
}
