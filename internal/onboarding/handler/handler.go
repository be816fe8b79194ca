package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/service"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httputil"
	"keystone/pkg/requestcontext"
)

// maxUploadMemory bounds the multipart form kept in memory per upload.
const maxUploadMemory = 32 << 20

// Service defines the onboarding operations exposed over HTTP.
type Service interface {
	Schema(ctx context.Context, role models.Role) (*schema.Schema, error)
	Phase(ctx context.Context, role models.Role, slug string) (*service.PhaseView, error)
	State(ctx context.Context, role models.Role) (*service.StateView, error)
	UpdateAnswers(ctx context.Context, role models.Role, raw map[string]any) (*service.StateView, error)
	SetPosition(ctx context.Context, role models.Role, phase, section int) (*service.StateView, error)
	CompleteSection(ctx context.Context, role models.Role, key string) (*service.StateView, error)
	SubmitSection(ctx context.Context, role models.Role, key string, raw map[string]any) (*service.SubmitResult, error)
	SyncProgress(ctx context.Context, role models.Role) (*service.StateView, error)
	Reset(ctx context.Context, role models.Role) (*service.StateView, error)
	Clear(ctx context.Context, role models.Role) error
	UploadDocument(ctx context.Context, role models.Role, fieldKey string, up models.UploadRequest) (*models.Document, error)
	DeleteDocument(ctx context.Context, role models.Role, projectID, documentID string) error
}

// Handler serves the onboarding wizard endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new onboarding Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the onboarding and reference routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/onboarding/{role}", func(r chi.Router) {
		r.Use(h.requireRole)
		r.Get("/schema", h.handleSchema)
		r.Get("/phases/{slug}", h.handlePhase)
		r.Get("/state", h.handleState)
		r.Patch("/state/answers", h.handleUpdateAnswers)
		r.Put("/state/position", h.handleSetPosition)
		r.Delete("/state", h.handleClear)
		r.Post("/sections/{key}/complete", h.handleCompleteSection)
		r.Post("/sections/{key}/submit", h.handleSubmitSection)
		r.Post("/progress/sync", h.handleSyncProgress)
		r.Post("/reset", h.handleReset)
		r.Post("/documents", h.handleUploadDocument)
		r.Delete("/documents/{projectID}/{documentID}", h.handleDeleteDocument)
	})
	r.Get("/reference/countries", h.handleCountries)
	r.Get("/reference/currencies", h.handleCurrencies)
}

type roleKey struct{}

// requireRole rejects unknown roles before any handler runs.
func (h *Handler) requireRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := models.ParseRole(chi.URLParam(r, "role"))
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown onboarding role"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, role)))
	})
}

func roleFrom(ctx context.Context) models.Role {
	role, _ := ctx.Value(roleKey{}).(models.Role)
	return role
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sch, err := h.service.Schema(ctx, roleFrom(ctx))
	if err != nil {
		h.fail(ctx, w, err, "failed to load schema")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchemaResponse(sch))
}

func (h *Handler) handlePhase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Phase(ctx, roleFrom(ctx), chi.URLParam(r, "slug"))
	if err != nil {
		var notFound *service.PhaseNotFoundError
		if errors.As(err, &notFound) {
			httputil.WriteJSON(w, http.StatusNotFound, phaseNotFoundResponse{
				Error:            string(dErrors.CodeNotFound),
				ErrorDescription: notFound.Error(),
				Redirect:         notFound.Redirect,
				RedirectSlug:     notFound.RedirectSlug,
			})
			return
		}
		h.fail(ctx, w, err, "failed to resolve phase")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.State(ctx, roleFrom(ctx))
	if err != nil {
		h.fail(ctx, w, err, "failed to load onboarding state")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdateAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AnswersRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid update answers request")
		return
	}
	view, err := h.service.UpdateAnswers(ctx, roleFrom(ctx), req.Answers)
	if err != nil {
		h.fail(ctx, w, err, "failed to update answers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PositionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid position request")
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, err, "invalid position request")
		return
	}
	view, err := h.service.SetPosition(ctx, roleFrom(ctx), *req.Phase, *req.Section)
	if err != nil {
		h.fail(ctx, w, err, "failed to set position")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.CompleteSection(ctx, roleFrom(ctx), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(ctx, w, err, "failed to complete section")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSubmitSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AnswersRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.fail(ctx, w, err, "invalid submit request")
			return
		}
	}
	res, err := h.service.SubmitSection(ctx, roleFrom(ctx), chi.URLParam(r, "key"), req.Answers)
	if err != nil {
		h.fail(ctx, w, err, "failed to submit section")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleSyncProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.SyncProgress(ctx, roleFrom(ctx))
	if err != nil {
		h.fail(ctx, w, err, "failed to sync progress")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Reset(ctx, roleFrom(ctx))
	if err != nil {
		h.fail(ctx, w, err, "failed to reset onboarding")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Clear(ctx, roleFrom(ctx)); err != nil {
		h.fail(ctx, w, err, "failed to clear onboarding state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.fail(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"), "invalid upload request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "file is required"), "invalid upload request")
		return
	}
	defer file.Close()

	up := models.UploadRequest{
		ProjectID:    r.FormValue("project_id"),
		File:         file,
		FileName:     header.Filename,
		Size:         header.Size,
		Category:     r.FormValue("category"),
		FileType:     r.FormValue("file_type"),
		Subcategory:  r.FormValue("subcategory"),
		DocumentName: r.FormValue("document_name"),
		Notes:        r.FormValue("notes"),
	}
	doc, err := h.service.UploadDocument(ctx, roleFrom(ctx), r.FormValue("field_key"), up)
	if err != nil {
		h.fail(ctx, w, err, "failed to upload document")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.DeleteDocument(ctx, roleFrom(ctx), chi.URLParam(r, "projectID"), chi.URLParam(r, "documentID"))
	if err != nil {
		h.fail(ctx, w, err, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail logs err at a level matching its code and writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"role", roleFrom(ctx),
		"error", err.Error(),
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
