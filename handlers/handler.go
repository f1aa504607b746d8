package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/logger"
	"sentiment-dashboard/metrics"
	"sentiment-dashboard/pipeline"
)

// PageInfo is the static text around the charts.
type PageInfo struct {
	Title   string
	About   string
	InfoURL string
}

// Handler serves the dashboard from one memoized data source.
type Handler struct {
	cache   *dataset.Cache
	source  dataset.Source
	filter  *pipeline.Filter
	metrics *metrics.Recorder
	page    PageInfo
	log     zerolog.Logger
}

// New wires a Handler. rec may be nil.
func New(cache *dataset.Cache, source dataset.Source, rec *metrics.Recorder, page PageInfo, log zerolog.Logger) *Handler {
	return &Handler{
		cache:   cache,
		source:  source,
		filter:  pipeline.NewFilter(logger.Named(log, "pipeline")),
		metrics: rec,
		page:    page,
		log:     log,
	}
}

// loadDataset returns the memoized dataset, writing a 503 and returning false
// when it cannot be loaded.
func (h *Handler) loadDataset(c *gin.Context) (*dataset.Dataset, bool) {
	ds, err := h.cache.Get(c.Request.Context(), h.source)
	if err != nil {
		logger.C(c.Request.Context(), h.log).Error().Err(err).Msg("dataset unavailable")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, false
	}
	return ds, true
}

// filtered loads the dataset, binds the filter snapshot and applies it.
func (h *Handler) filtered(c *gin.Context, endpoint string) (pipeline.View, pipeline.Params, bool) {
	ds, ok := h.loadDataset(c)
	if !ok {
		return pipeline.View{}, pipeline.Params{}, false
	}
	p, err := bindParams(c, ds)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters: " + err.Error()})
		return pipeline.View{}, pipeline.Params{}, false
	}

	start := time.Now()
	v := h.filter.Apply(ds, p)
	if h.metrics != nil {
		h.metrics.ObserveFilter(endpoint, v.Len(), time.Since(start))
	}
	return v, p, true
}

func isLoadError(err error) bool {
	var le *dataset.LoadError
	return errors.As(err, &le)
}
