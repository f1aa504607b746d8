package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// WordWeight is one term of the word cloud. Weight is Count scaled so the most
// frequent term is 1.
type WordWeight struct {
	Word   string  `json:"word"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// WordFrequencies tokenizes text, drops stop words and single characters and
// returns the limit most frequent terms. Ties are broken alphabetically.
func WordFrequencies(text string, limit int) []WordWeight {
	if text == "" || limit <= 0 {
		return nil
	}
	fold := cases.Fold()
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(text, isWordSeparator) {
		tok = strings.Trim(fold.String(tok), "'")
		tok = strings.TrimSuffix(tok, "'s")
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]WordWeight, 0, len(counts))
	for w, n := range counts {
		out = append(out, WordWeight{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	top := float64(out[0].Count)
	for i := range out {
		out[i].Weight = float64(out[i].Count) / top
	}
	return out
}

func isWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}

// stopWords is the common English list word cloud generators ship with.
var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
a about above after again against all also am an and any are aren't as at be because been
before being below between both but by can can't cannot com could couldn't did didn't do does
doesn't doing don't down during each else ever few for from further get had hadn't has hasn't
have haven't having he he'd he'll he's hence her here here's hers herself him himself his how
how's however http i i'd i'll i'm i've if in into is isn't it it's its itself just k let's like
me more most mustn't my myself no nor not of off on once only or other otherwise ought our ours
ourselves out over own r same shall shan't she she'd she'll she's should shouldn't since so some
such than that that's the their theirs them themselves then there there's these they they'd
they'll they're they've this those through to too under until up very was wasn't we we'd we'll
we're we've were weren't what what's when when's where where's which while who who's whom why
why's with won't would wouldn't www you you'd you'll you're you've your yours yourself yourselves`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
