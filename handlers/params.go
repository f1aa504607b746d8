package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/models"
	"sentiment-dashboard/pipeline"
)

const dateLayout = "2006-01-02"

// FilterQuery is the query string form of the filter controls.
type FilterQuery struct {
	Side       string   `form:"side" binding:"omitempty,side"`
	Sentiments []string `form:"sentiment" binding:"dive,omitempty,sentiment"`
	From       string   `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string   `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Keyword    string   `form:"keyword" binding:"max=200"`
}

// RegisterValidators adds the side and sentiment rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("side", oneOf(models.SelectableSides())); err != nil {
		return err
	}
	return v.RegisterValidation("sentiment", oneOf(models.Sentiments()))
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// bindParams captures the request's filter controls as one snapshot.
// An absent sentiment key selects every sentiment; a present key selects
// exactly the non-empty values given, so "sentiment=" selects none.
func bindParams(c *gin.Context, ds *dataset.Dataset) (pipeline.Params, error) {
	var q FilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return pipeline.Params{}, err
	}

	p := pipeline.DefaultParams(ds)
	if q.Side != "" {
		p.Side = q.Side
	}
	if _, present := c.Request.URL.Query()["sentiment"]; present {
		p.Sentiments = p.Sentiments[:0]
		for _, s := range q.Sentiments {
			if s != "" {
				p.Sentiments = append(p.Sentiments, s)
			}
		}
	}
	if q.From != "" {
		from, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return pipeline.Params{}, err
		}
		p.From = from
	}
	if q.To != "" {
		to, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return pipeline.Params{}, err
		}
		p.To = to
	}
	p.Keyword = q.Keyword
	return p, nil
}

// encodeParams renders p back into a query string, used for export links.
func encodeParams(p pipeline.Params) string {
	q := url.Values{}
	q.Set("side", p.Side)
	q.Add("sentiment", "")
	for _, s := range p.Sentiments {
		q.Add("sentiment", s)
	}
	if !p.From.IsZero() {
		q.Set("from", p.From.Format(dateLayout))
	}
	if !p.To.IsZero() {
		q.Set("to", p.To.Format(dateLayout))
	}
	if p.Keyword != "" {
		q.Set("keyword", p.Keyword)
	}
	return q.Encode()
}
