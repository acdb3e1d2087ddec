package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/database"
	"github.com/dalemusser/retroboard/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB    *gorm.DB
	Audit *mongo.Client // nil when the MongoDB audit sink is disabled
	Log   *zap.Logger
}

// NewHandler constructs a health Handler. audit may be nil.
func NewHandler(db *gorm.DB, audit *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Audit: audit,
		Log:   logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Audit    string `json:"audit"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "audit":"connected" }
//
// "audit" is "disabled" when no audit MongoDB is configured. An unreachable
// audit store only degrades the status, since rooms keep working without it.
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Audit:    "disabled",
	}

	if err := database.Ping(ctx, h.DB); err != nil {
		h.Log.Error("health-check: database ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Audit = ""
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Ping(ctx, readpref.Primary()); err != nil {
			h.Log.Warn("health-check: audit mongo ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Audit = "disconnected"
			resp.Error = err.Error()
		} else {
			resp.Audit = "connected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
