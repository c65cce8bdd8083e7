package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"taxnavo/internal/model"
	"taxnavo/internal/service"
	"taxnavo/internal/transport/rest/middleware"
)

// QuestionnaireHandler exposes the per-year questionnaire session
type QuestionnaireHandler struct {
	svc    *service.QuestionnaireService
	logger *zap.Logger
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(svc *service.QuestionnaireService, logger *zap.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc, logger: logger}
}

// Years handles GET /v1/years
// @Summary List tax years
// @Tags questionnaires
// @Produce json
// @Success 200 {object} map[string][]int
// @Router /years [get]
func (h *QuestionnaireHandler) Years(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{"years": h.svc.Years()})
}

// State handles GET /v1/questionnaires/{year}
// @Summary Current questionnaire state
// @Tags questionnaires
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {object} model.SessionState
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /questionnaires/{year} [get]
func (h *QuestionnaireHandler) State(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	st, err := h.svc.State(r.Context(), middleware.GetUserID(r.Context()), year)
	h.respond(w, st, err)
}

// Answers handles GET /v1/questionnaires/{year}/answers
// @Summary Answer map
// @Tags questionnaires
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {object} model.AnswerMap
// @Security BearerAuth
// @Router /questionnaires/{year}/answers [get]
func (h *QuestionnaireHandler) Answers(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	answers, err := h.svc.Answers(r.Context(), middleware.GetUserID(r.Context()), year)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// RecordAnswer handles POST /v1/questionnaires/{year}/answers
// @Summary Answer the current question
// @Tags questionnaires
// @Accept json
// @Produce json
// @Param year path int true "Tax year"
// @Param body body model.RecordAnswerRequest true "Answer"
// @Success 200 {object} model.SessionState
// @Failure 409 {object} ErrorResponse "not the current question, or questionnaire complete"
// @Failure 422 {object} ErrorResponse "value not valid for the question"
// @Security BearerAuth
// @Router /questionnaires/{year}/answers [post]
func (h *QuestionnaireHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	var req model.RecordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.svc.RecordAnswer(r.Context(), middleware.GetUserID(r.Context()), year, req.QuestionID, req.Value)
	h.respond(w, st, err)
}

// Advance handles POST /v1/questionnaires/{year}/advance
// @Summary Move to the next visible question
// @Tags questionnaires
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {object} model.SessionState
// @Security BearerAuth
// @Router /questionnaires/{year}/advance [post]
func (h *QuestionnaireHandler) Advance(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	st, err := h.svc.Advance(r.Context(), middleware.GetUserID(r.Context()), year)
	h.respond(w, st, err)
}

// Retreat handles POST /v1/questionnaires/{year}/retreat
// @Summary Move to the previous visible question
// @Tags questionnaires
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {object} model.SessionState
// @Security BearerAuth
// @Router /questionnaires/{year}/retreat [post]
func (h *QuestionnaireHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	st, err := h.svc.Retreat(r.Context(), middleware.GetUserID(r.Context()), year)
	h.respond(w, st, err)
}

// Seek handles POST /v1/questionnaires/{year}/seek
// @Summary Jump to a question index
// @Tags questionnaires
// @Accept json
// @Produce json
// @Param year path int true "Tax year"
// @Param body body model.SeekRequest true "Index"
// @Success 200 {object} model.SessionState
// @Security BearerAuth
// @Router /questionnaires/{year}/seek [post]
func (h *QuestionnaireHandler) Seek(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	var req model.SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := h.svc.Seek(r.Context(), middleware.GetUserID(r.Context()), year, req.Index)
	h.respond(w, st, err)
}

// Save handles PUT /v1/questionnaires/{year}/save
// @Summary Save answers now
// @Tags questionnaires
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {object} model.SessionState
// @Failure 502 {object} ErrorResponse "storage unavailable; state is still returned"
// @Security BearerAuth
// @Router /questionnaires/{year}/save [put]
func (h *QuestionnaireHandler) Save(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	st, err := h.svc.SaveNow(r.Context(), middleware.GetUserID(r.Context()), year)
	h.respond(w, st, err)
}

func (h *QuestionnaireHandler) respond(w http.ResponseWriter, st *model.SessionState, err error) {
	if err != nil {
		writeServiceError(w, h.logger, err, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
