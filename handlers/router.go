package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sentiment-dashboard/metrics"
	"sentiment-dashboard/web"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	RateLimit   bool
	RPS         float64
	Burst       int
	SlowRequest time.Duration
}

// NewRouter builds the gin engine with pages, API routes and /metrics.
func NewRouter(h *Handler, rec *metrics.Recorder, opts RouterOptions, log zerolog.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(RequestID(log), AccessLog(log, opts.SlowRequest), Recovery(log))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})
	r.GET("/dashboard", h.Dashboard)
	r.GET("/healthz", h.Health)
	if rec != nil {
		r.GET("/metrics", gin.WrapH(rec.Handler()))
	}

	api := r.Group("/api")
	if opts.RateLimit {
		api.Use(RateLimit(opts.RPS, opts.Burst))
	}
	{
		api.GET("/comments", h.GetComments)
		api.GET("/stats", h.GetStats)
		api.GET("/trend", h.GetTrend)
		api.GET("/wordcloud", h.GetWordCloud)
		api.GET("/bounds", h.GetBounds)
		api.GET("/export.csv", h.Export("csv"))
		api.GET("/export.xlsx", h.Export("xlsx"))
		api.POST("/reload", h.Reload)
	}

	return r, nil
}
