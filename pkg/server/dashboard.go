package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wattcast/wattcast/pkg/dashboard"
	"github.com/wattcast/wattcast/pkg/log"
	"github.com/wattcast/wattcast/pkg/readings"
)

const maxBodyBytes = 64 * 1024

type setReadingsRequest struct {
	Raw string `json:"raw"`
}

type setHourRequest struct {
	Value *float64 `json:"value"`
}

type setHorizonRequest struct {
	Horizon *int `json:"horizon"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dashboard.View(), http.StatusOK)
}

func (s *Server) handleSetReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setReadingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode readings request", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.dashboard.SetBulk(req.Raw); err != nil {
		log.Ctx(ctx).DebugContext(ctx, "rejected readings", slog.Any("error", err))
		writeValidationError(w, readings.Messages(err))
		return
	}
	writeJSON(w, s.dashboard.View(), http.StatusOK)
}

func (s *Server) handleSetHour(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hour, err := strconv.Atoi(r.PathValue("hour"))
	if err != nil {
		writeJSONError(w, "hour must be an integer", http.StatusBadRequest)
		return
	}
	var req setHourRequest
	if err := decodeBody(w, r, &req); err != nil || req.Value == nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode hour request", slog.Any("error", err))
		writeJSONError(w, "value is required", http.StatusBadRequest)
		return
	}

	if err := s.dashboard.SetHour(hour, *req.Value); err != nil {
		writeValidationError(w, readings.Messages(err))
		return
	}
	writeJSON(w, s.dashboard.View(), http.StatusOK)
}

func (s *Server) handleSetHorizon(w http.ResponseWriter, r *http.Request) {
	var req setHorizonRequest
	if err := decodeBody(w, r, &req); err != nil || req.Horizon == nil {
		writeJSONError(w, "horizon is required", http.StatusBadRequest)
		return
	}
	if err := s.dashboard.SetHorizon(*req.Horizon); err != nil {
		writeJSONError(w, "horizon must be one of 0, 1, 6, 12, 24", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.dashboard.View(), http.StatusOK)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	// a response that arrives after the browser went away still updates the
	// dashboard, so the request must not be canceled with the connection
	ctx := context.WithoutCancel(r.Context())

	err := s.dashboard.Predict(ctx)
	switch {
	case errors.Is(err, dashboard.ErrBusy):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		writeJSONError(w, dashboard.PredictionFailedMessage, http.StatusBadGateway)
		return
	}
	writeJSON(w, s.dashboard.View(), http.StatusOK)
}
