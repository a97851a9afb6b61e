package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/config"
	"github.com/repairboard/kioskd/internal/display"
	"github.com/repairboard/kioskd/internal/repair"
	"github.com/repairboard/kioskd/internal/summary"
	"github.com/repairboard/kioskd/internal/telemetry"
	"github.com/repairboard/kioskd/internal/ws"
)

// Deps are the components the router exposes. Monitor, WS and Metrics are
// optional.
type Deps struct {
	Config   *config.Config
	Store    repair.Store
	Board    *board.Scheduler
	Displays *display.Manager
	Monitor  *summary.Monitor
	WS       *ws.Server
	Metrics  *telemetry.Metrics
	Logger   *zap.SugaredLogger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	h := NewHandlers(deps)

	// Health & Info
	r.Get("/health", h.Health)
	r.Get("/info", h.Info)
	r.Get("/stats", h.Stats)

	// Repair jobs
	r.Route("/api/car-repair", func(r chi.Router) {
		r.Get("/", h.ListRepairs)
		r.Post("/", h.CreateRepair)
		r.Get("/{plate}", h.GetRepair)
		r.Put("/{plate}", h.ReplaceRepair)
		r.Patch("/{plate}", h.PatchRepair)
		r.Delete("/{plate}", h.DeleteRepair)
	})

	// Board
	r.Get("/api/board/ranked", h.Ranked)
	r.Get("/api/board/summary", h.Summary)
	r.Get("/api/displays", h.ListDisplays)
	r.Get("/api/displays/{id}", h.GetDisplay)

	r.Handle("/metrics", deps.Metrics.Handler())

	// WebSocket
	if deps.WS != nil {
		r.Get("/ws/display", deps.WS.HandleDisplay)
	}

	return r
}
