package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/godesk-io/godesk-ce/internal/cache"
	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/repository"
)

// Dependencies carries everything the handlers need. Wired once in main
// and in tests.
type Dependencies struct {
	Rules           repository.RuleRepository
	Tickets         repository.TicketStore
	RuleCache       *cache.RuleCache
	Auth            *middleware.AuthMiddleware
	DefaultLanguage string
	MetricsPath     string
}

// NewRouter builds the gin engine with all SLA routes mounted under
// /api/v1.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.MetricsPath != "" {
		r.GET(deps.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	h := newHandlers(deps)

	v1 := r.Group("/api/v1")
	if deps.Auth != nil {
		v1.Use(deps.Auth.RequireAuth())
	}

	rules := v1.Group("/sla/rules")
	{
		rules.GET("", h.ListRules)
		rules.POST("", h.CreateRule)
		rules.GET("/:id", h.GetRule)
		rules.PUT("/:id", h.UpdateRule)
		rules.DELETE("/:id", h.DeleteRule)
	}

	calendars := v1.Group("/sla/calendars")
	{
		calendars.GET("", h.ListCalendars)
		calendars.POST("", h.CreateCalendar)
		calendars.GET("/:id", h.GetCalendar)
		calendars.PUT("/:id", h.UpdateCalendar)
		calendars.POST("/:id/working-hours", h.ImportWorkingHours)
	}

	tickets := v1.Group("/tickets")
	{
		tickets.POST("", h.CreateTicket)
		tickets.GET("/:id/sla", h.GetTicketSLA)
		tickets.POST("/:id/due-date", h.AssignDueDate)
		tickets.PUT("/:id/status", h.UpdateTicketStatus)
	}

	v1.GET("/reports/sla/heatmap", h.TicketHeatmap)

	return r
}

type handlers struct {
	rules       repository.RuleRepository
	tickets     repository.TicketStore
	cache       *cache.RuleCache
	defaultLang string
}

func newHandlers(deps Dependencies) *handlers {
	lang := deps.DefaultLanguage
	if lang == "" {
		lang = "tr"
	}
	ruleCache := deps.RuleCache
	if ruleCache == nil {
		ruleCache = cache.NewRuleCache(deps.Rules, nil, 0)
	}
	return &handlers{
		rules:       deps.Rules,
		tickets:     deps.Tickets,
		cache:       ruleCache,
		defaultLang: lang,
	}
}
