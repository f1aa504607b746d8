package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentiment-dashboard/export"
	"sentiment-dashboard/logger"
	"sentiment-dashboard/models"
	"sentiment-dashboard/pipeline"
)

const (
	maxPreviewRows = 500
	maxWordTerms   = 500

	noDataMessage = "No data available for the selected filters."
	noTextMessage = "No text data available for the selected filters."
)

type TrendResponse struct {
	Days       []string `json:"days"`
	Sentiments []string `json:"sentiments"`
	Counts     [][]int  `json:"counts"`
}

func trendResponse(t pipeline.Trend) TrendResponse {
	days := make([]string, len(t.Days))
	for i, d := range t.Days {
		days[i] = d.Format(dateLayout)
	}
	counts := t.Counts
	if counts == nil {
		counts = [][]int{}
	}
	sentiments := t.Sentiments
	if sentiments == nil {
		sentiments = []string{}
	}
	return TrendResponse{Days: days, Sentiments: sentiments, Counts: counts}
}

// GetComments returns the first rows of the filtered table.
func (h *Handler) GetComments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(previewRows)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	if limit > maxPreviewRows {
		limit = maxPreviewRows
	}

	v, _, ok := h.filtered(c, "comments")
	if !ok {
		return
	}
	rows := pipeline.Preview(v, limit)
	c.JSON(http.StatusOK, gin.H{
		"total": v.Len(),
		"rows":  rows,
		"empty": v.Empty(),
	})
}

// GetStats returns the sentiment distribution of the filtered table.
func (h *Handler) GetStats(c *gin.Context) {
	v, _, ok := h.filtered(c, "stats")
	if !ok {
		return
	}
	counts := pipeline.SentimentCounts(v)
	resp := gin.H{
		"total":  v.Len(),
		"counts": counts,
		"empty":  counts.Empty(),
	}
	if counts.Empty() {
		resp["counts"] = []pipeline.Count{}
		resp["message"] = noDataMessage
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrend returns the day by sentiment pivot of the filtered table.
func (h *Handler) GetTrend(c *gin.Context) {
	v, _, ok := h.filtered(c, "trend")
	if !ok {
		return
	}
	trend := pipeline.DailyTrend(v)
	resp := gin.H{"trend": trendResponse(trend), "empty": trend.Empty()}
	if trend.Empty() {
		resp["message"] = noDataMessage
	}
	c.JSON(http.StatusOK, resp)
}

// GetWordCloud returns weighted terms of the filtered comment text.
func (h *Handler) GetWordCloud(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(wordCloudTerms)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxWordTerms {
		limit = maxWordTerms
	}

	v, _, ok := h.filtered(c, "wordcloud")
	if !ok {
		return
	}
	// Empty means nothing left to draw, the same rule the page uses.
	words := pipeline.WordFrequencies(pipeline.TextBlob(v), limit)
	resp := gin.H{"words": words, "empty": len(words) == 0}
	if len(words) == 0 {
		resp["words"] = []pipeline.WordWeight{}
		resp["message"] = noTextMessage
	}
	c.JSON(http.StatusOK, resp)
}

// GetBounds returns the selectable filter options and the dataset date range.
func (h *Handler) GetBounds(c *gin.Context) {
	ds, ok := h.loadDataset(c)
	if !ok {
		return
	}
	resp := gin.H{
		"rows":       ds.Len(),
		"columns":    ds.Columns(),
		"sides":      models.SelectableSides(),
		"sentiments": models.Sentiments(),
		"source":     ds.SourceID(),
		"loaded_at":  ds.LoadedAt(),
	}
	if min, max, ok := ds.DateBounds(); ok {
		resp["min_date"] = min.Format(dateLayout)
		resp["max_date"] = max.Format(dateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

// Export streams the filtered table as CSV or XLSX; 204 when it is empty.
func (h *Handler) Export(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _, ok := h.filtered(c, "export_"+format)
		if !ok {
			return
		}
		if v.Empty() {
			c.Status(http.StatusNoContent)
			return
		}

		var (
			filename, mime string
			write          = export.WriteCSV
		)
		switch format {
		case "xlsx":
			filename, mime, write = export.XLSXFilename, export.XLSXMime, export.WriteXLSX
		default:
			filename, mime = export.CSVFilename, export.CSVMime+"; charset=utf-8"
		}

		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", mime)
		c.Status(http.StatusOK)
		if err := write(c.Writer, v); err != nil {
			logger.C(c.Request.Context(), h.log).Error().Err(err).Str("format", format).Msg("export failed")
		}
	}
}

// Reload drops the memoized dataset and loads it again.
func (h *Handler) Reload(c *gin.Context) {
	h.cache.Invalidate(h.source.ID())
	ds, err := h.cache.Get(c.Request.Context(), h.source)
	if err != nil {
		status := http.StatusInternalServerError
		if isLoadError(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	logger.C(c.Request.Context(), h.log).Info().Int("rows", ds.Len()).Msg("dataset reloaded")
	c.JSON(http.StatusOK, gin.H{"rows": ds.Len(), "source": ds.SourceID()})
}

// Health reports liveness and how many datasets are memoized.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "datasets_cached": h.cache.Len()})
}
