package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/config"
	"github.com/repairboard/kioskd/internal/display"
	"github.com/repairboard/kioskd/internal/repair"
	"github.com/repairboard/kioskd/internal/summary"
	"github.com/repairboard/kioskd/internal/telemetry"
)

var startTime = time.Now()

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handlers struct {
	cfg      *config.Config
	store    repair.Store
	board    *board.Scheduler
	displays *display.Manager
	monitor  *summary.Monitor
	metrics  *telemetry.Metrics
	logger   *zap.SugaredLogger
}

func NewHandlers(deps Deps) *Handlers {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handlers{
		cfg:      cfg,
		store:    deps.Store,
		board:    deps.Board,
		displays: deps.Displays,
		monitor:  deps.Monitor,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"board_id":       h.cfg.BoardID,
		"version":        "0.1.0",
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"store_backend":  h.cfg.Store.Backend,
		"page_size":      h.cfg.Board.PageSize,
		"interval":       h.cfg.Board.Interval.String(),
	})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"board_id":       h.cfg.BoardID,
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"repairs":        repair.CountRecords(h.store.Snapshot()),
		"store_size":     h.store.Len(),
	}
	if h.displays != nil {
		stats["displays"] = h.displays.Stats()
	}
	if h.board != nil {
		stats["board"] = h.board.State()
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListRepairs returns every record, optionally filtered by ?status=.
func (h *Handlers) ListRepairs(w http.ResponseWriter, r *http.Request) {
	records := h.store.Snapshot()

	if q := r.URL.Query().Get("status"); q != "" {
		status, err := repair.ParseStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := records[:0]
		for _, rec := range records {
			if rec.Status == status {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: records})
}

func (h *Handlers) GetRepair(w http.ResponseWriter, r *http.Request) {
	plate := plateParam(r)
	rec, ok := h.store.Get(plate)
	if !ok {
		writeError(w, http.StatusNotFound, "Car repair info not found")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: rec})
}

func (h *Handlers) CreateRepair(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := req.Record()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ok := h.store.Add(rec)
	h.metrics.StoreOp("create", ok)
	if !ok {
		writeError(w, http.StatusConflict, "Car repair info already exists")
		return
	}
	h.logger.Infof("Repair job created: %s (%s)", rec.Plate, rec.Status)
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Car repair info created successfully", Data: rec})
}

// ReplaceRepair overwrites every field except the plate, which comes from
// the path.
func (h *Handlers) ReplaceRepair(w http.ResponseWriter, r *http.Request) {
	plate := plateParam(r)

	var req RepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LicensePlateNumber == "" {
		req.LicensePlateNumber = plate
	}
	if req.LicensePlateNumber != plate {
		writeError(w, http.StatusBadRequest, "license plate number cannot be changed")
		return
	}
	rec, err := req.Record()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ok := h.store.Replace(plate, rec)
	h.metrics.StoreOp("replace", ok)
	if !ok {
		writeError(w, http.StatusNotFound, "Car repair info not found")
		return
	}
	h.logger.Infof("Repair job replaced: %s (%s)", plate, rec.Status)
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Car repair info updated successfully", Data: rec})
}

func (h *Handlers) PatchRepair(w http.ResponseWriter, r *http.Request) {
	plate := plateParam(r)

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	changes, err := req.Changes()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	rec, ok := h.store.Modify(plate, changes)
	h.metrics.StoreOp("update", ok)
	if !ok {
		writeError(w, http.StatusNotFound, "Car repair info not found")
		return
	}
	h.logger.Infof("Repair job updated: %s (%s)", plate, rec.Status)
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Car repair info updated successfully", Data: rec})
}

func (h *Handlers) DeleteRepair(w http.ResponseWriter, r *http.Request) {
	plate := plateParam(r)
	ok := h.store.Remove(plate)
	h.metrics.StoreOp("delete", ok)
	if !ok {
		writeError(w, http.StatusNotFound, "Car repair info not found")
		return
	}
	h.logger.Infof("Repair job deleted: %s", plate)
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Car repair info deleted successfully"})
}

func (h *Handlers) Ranked(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeError(w, http.StatusServiceUnavailable, "board not running")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: map[string]any{
		"rotation": h.board.RotationSeq(),
		"entries":  h.board.Ranked(),
	}})
}

// Summary serves the monitor's last published summary. Without a running
// monitor it is computed on request from the board's current rotation.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	if h.monitor != nil {
		if s, ok := h.monitor.Last(); ok {
			writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: s})
			return
		}
	}
	if h.board == nil {
		writeError(w, http.StatusServiceUnavailable, "board not running")
		return
	}
	now := time.Now()
	s := summary.Compute(h.board.Ranked(), h.board.RotationSeq(), now.Sub(startTime), now)
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: s})
}

func (h *Handlers) ListDisplays(w http.ResponseWriter, r *http.Request) {
	var displays []display.Info
	if h.displays != nil {
		displays = h.displays.List()
	}
	if displays == nil {
		displays = []display.Info{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: displays})
}

func (h *Handlers) GetDisplay(w http.ResponseWriter, r *http.Request) {
	if h.displays == nil {
		writeError(w, http.StatusNotFound, "Display not found")
		return
	}
	d, ok := h.displays.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Display not found")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Success", Data: d.Info()})
}

// plateParam returns the decoded plate. chi routes on RawPath when the
// request carries one, and only then is the parameter still escaped.
func plateParam(r *http.Request) string {
	plate := chi.URLParam(r, "plate")
	if r.URL.RawPath == "" {
		return plate
	}
	if p, err := url.PathUnescape(plate); err == nil {
		return p
	}
	return plate
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *repair.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
