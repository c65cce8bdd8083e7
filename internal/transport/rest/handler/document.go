package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taxnavo/internal/service"
	"taxnavo/internal/transport/rest/middleware"
)

// DocumentHandler handles document uploads and the required-document checklist
type DocumentHandler struct {
	svc    *service.DocumentService
	logger *zap.Logger
}

func NewDocumentHandler(svc *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, logger: logger}
}

// Upload handles POST /v1/documents (multipart: file, docType, year)
// @Summary Upload a tax document
// @Description The file is checked and acknowledged; only its metadata is kept.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param file formData file true "PDF, JPEG or PNG, at most 5 MB"
// @Param docType formData string true "Document type, e.g. W-2"
// @Param year formData int false "Tax year"
// @Success 201 {object} model.Document
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxDocumentSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	year := 0
	if v := r.FormValue("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}

	doc, err := h.svc.Upload(r.Context(), middleware.GetUserID(r.Context()), year, r.FormValue("docType"), header.Filename, file)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// List handles GET /v1/documents?year=
// @Summary List uploaded documents
// @Tags documents
// @Produce json
// @Param year query int false "Tax year"
// @Success 200 {array} model.Document
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		var err error
		if year, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	docs, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), year)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Delete handles DELETE /v1/documents/{id}
// @Summary Delete a document
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checklist handles GET /v1/questionnaires/{year}/documents
// @Summary Documents required by the year's answers
// @Tags documents
// @Produce json
// @Param year path int true "Tax year"
// @Success 200 {array} model.ChecklistItem
// @Security BearerAuth
// @Router /questionnaires/{year}/documents [get]
func (h *DocumentHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	year, ok := yearVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	items, err := h.svc.Checklist(r.Context(), middleware.GetUserID(r.Context()), year)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
