package handlers

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report json field names in validation problems
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Handlers groups the API handlers
type Handlers struct {
	Entries  *EntryHandler
	Advice   *AdviceHandler
	Insights *InsightsHandler
}

// Register mounts every authenticated route on api. aiLimit guards the
// endpoints that may call the remote advice service.
func (h Handlers) Register(api *gin.RouterGroup, aiLimit gin.HandlerFunc) {
	entries := api.Group("/entries")
	{
		entries.PUT("", h.Entries.UpsertEntry)
		entries.GET("", h.Entries.ListEntries)
		entries.GET("/:id", h.Entries.GetEntry)
		entries.DELETE("/:id", h.Entries.DeleteEntry)
		entries.POST("/:id/summary", h.Entries.RegenerateSummary)
		entries.POST("/:id/advice", aiLimit, h.Advice.GenerateAdvice)
		entries.GET("/:id/advice", h.Advice.GetAdvice)
		entries.GET("/:id/tracking", h.Advice.ListTracking)
	}

	tracking := api.Group("/tracking")
	{
		tracking.GET("/effectiveness", h.Advice.Effectiveness)
		tracking.POST("/:id/feedback", h.Advice.RecordFeedback)
	}

	insights := api.Group("/insights")
	{
		insights.GET("/weekly", aiLimit, h.Insights.GetWeekly)
		insights.POST("/weekly/refresh", aiLimit, h.Insights.RefreshWeekly)
		insights.GET("/weekly/history", h.Insights.History)
		insights.GET("/local-summary", h.Insights.LocalSummary)
		insights.GET("/enhanced", h.Insights.Enhanced)
	}
}
