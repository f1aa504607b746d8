package handlers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentiment-dashboard/export"
	"sentiment-dashboard/logger"
	"sentiment-dashboard/models"
	"sentiment-dashboard/pipeline"
)

const (
	previewRows    = 10
	wordCloudTerms = 150
)

type DashboardData struct {
	PageInfo
	Filters          pipeline.Params
	Sides            []string
	SentimentOptions []string
	MinDate          time.Time
	MaxDate          time.Time
	DatasetRows      int
	Total            int
	Counts           pipeline.Counts
	Trend            pipeline.Trend
	TrendJSON        TrendResponse
	Words            []pipeline.WordWeight
	Columns          []string
	Preview          [][]string
	Query            template.URL
}

func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	ds, err := h.cache.Get(ctx, h.source)
	if err != nil {
		logger.C(ctx, h.log).Error().Err(err).Msg("dashboard unavailable")
		c.HTML(http.StatusServiceUnavailable, "error.html", gin.H{"error": err.Error()})
		return
	}

	p, err := bindParams(c, ds)
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "Invalid filter parameters: " + err.Error()})
		return
	}

	start := time.Now()
	v := h.filter.Apply(ds, p)
	if h.metrics != nil {
		h.metrics.ObserveFilter("dashboard", v.Len(), time.Since(start))
	}

	trend := pipeline.DailyTrend(v)
	columns := export.Header(v)
	preview := pipeline.Preview(v, previewRows)
	rows := make([][]string, 0, len(preview))
	for i := range preview {
		rows = append(rows, export.Record(&preview[i], columns))
	}

	data := DashboardData{
		PageInfo:         h.page,
		Filters:          p,
		Sides:            models.SelectableSides(),
		SentimentOptions: models.Sentiments(),
		DatasetRows:      ds.Len(),
		Total:            v.Len(),
		Counts:           pipeline.SentimentCounts(v),
		Trend:            trend,
		TrendJSON:        trendResponse(trend),
		Words:            pipeline.WordFrequencies(pipeline.TextBlob(v), wordCloudTerms),
		Columns:          columns,
		Preview:          rows,
		Query:            template.URL(encodeParams(p)),
	}
	data.MinDate, data.MaxDate, _ = ds.DateBounds()

	c.HTML(http.StatusOK, "dashboard.html", data)
}
