package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ismael237/iot-automation-engine/internal/bus"
	"github.com/Ismael237/iot-automation-engine/internal/rules"
	"github.com/Ismael237/iot-automation-engine/internal/storage"
)

// EventPublisher lets tests run the handlers without a broker.
type EventPublisher interface {
	Publish(subject string, event bus.Event) error
}

type Handler struct {
	Store   storage.RuleStore
	Bus     EventPublisher
	Logger  *zap.Logger
	Timeout time.Duration
}

type errorResponse struct {
	Ok      bool                `json:"ok"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details []rules.ErrorDetail `json:"details,omitempty"`
}

type ruleRequest struct {
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	SensorDeploymentID string                `json:"sensorDeploymentId"`
	Operator           rules.Operator        `json:"operator"`
	ThresholdValue     float64               `json:"thresholdValue"`
	ActionType         rules.ActionType      `json:"actionType"`
	Alert              *rules.AlertAction    `json:"alert"`
	Actuator           *rules.ActuatorAction `json:"actuator"`
	CooldownMinutes    int                   `json:"cooldownMinutes"`
	IsActive           *bool                 `json:"isActive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/automation/rules", func(r chi.Router) {
		r.Get("/", h.handleRulesList)
		r.Post("/", h.handleRuleCreate)
		r.Get("/{id}", h.handleRuleGet)
		r.Put("/{id}", h.handleRuleUpdate)
		r.Delete("/{id}", h.handleRuleDelete)
		r.Get("/{id}/executions", h.handleRuleExecutions)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) handleRulesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	activeOnly := r.URL.Query().Get("is_active") == "true"
	rulesList, err := h.Store.ListRules(ctx, activeOnly)
	if err != nil {
		h.Logger.Error("failed to list rules", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "STORE_ERROR", Message: "failed to list rules"})
		return
	}
	writeJSON(w, http.StatusOK, rulesList)
}

func (h *Handler) handleRuleCreate(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	rule := req.toRule()
	created, err := h.Store.CreateRule(ctx, rule)
	if err != nil {
		h.writeStoreError(w, err, "failed to create rule")
		return
	}
	h.publish(bus.SubjectRuleCreated, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleRuleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	rule, err := h.Store.GetRule(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "failed to fetch rule")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleRuleUpdate(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()
	rule := req.toRule()
	rule.ID = chi.URLParam(r, "id")
	updated, err := h.Store.UpdateRule(ctx, rule)
	if err != nil {
		h.writeStoreError(w, err, "failed to update rule")
		return
	}
	h.publish(bus.SubjectRuleUpdated, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteRule(ctx, id); err != nil {
		h.writeStoreError(w, err, "failed to delete rule")
		return
	}
	h.publish(bus.SubjectRuleDeleted, id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleRuleExecutions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetRule(ctx, id); err != nil {
		h.writeStoreError(w, err, "failed to fetch rule")
		return
	}
	executions, err := h.Store.ListExecutions(ctx, id)
	if err != nil {
		h.Logger.Error("failed to list executions", zap.String("rule_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "STORE_ERROR", Message: "failed to list executions"})
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	var verr *rules.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: verr.Code, Message: verr.Message, Details: verr.Details})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "rule not found"})
	default:
		h.Logger.Error(fallback, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "STORE_ERROR", Message: fallback})
	}
}

func (h *Handler) publish(subject, ruleID string) {
	if h.Bus == nil {
		return
	}
	if err := h.Bus.Publish(subject, bus.Event{RuleID: ruleID}); err != nil {
		h.Logger.Warn("failed to publish rule event",
			zap.String("subject", subject),
			zap.String("rule_id", ruleID),
			zap.Error(err),
		)
	}
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (req ruleRequest) toRule() rules.AutomationRule {
	rule := rules.AutomationRule{
		Name:               req.Name,
		Description:        req.Description,
		SensorDeploymentID: req.SensorDeploymentID,
		Operator:           req.Operator,
		ThresholdValue:     req.ThresholdValue,
		ActionType:         req.ActionType,
		Alert:              req.Alert,
		Actuator:           req.Actuator,
		CooldownMinutes:    req.CooldownMinutes,
		IsActive:           true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	return rule
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
