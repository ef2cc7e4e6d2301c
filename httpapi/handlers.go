package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/poiesic/docqa/core"
)

// Service is the pipeline behind the HTTP API.
type Service interface {
	Ask(ctx context.Context, projectID, question string) (*core.Answer, error)
	History(ctx context.Context, projectID string) (*core.Session, error)
	ResetSession(ctx context.Context, projectID string) error

	CreateProject(ctx context.Context, project *core.Project) (*core.Project, error)
	GetProject(ctx context.Context, projectID string) (*core.Project, error)
	ListProjects(ctx context.Context) ([]*core.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	AddDocument(ctx context.Context, projectID, name string, data []byte) (core.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]core.Document, error)
	DocumentName(doc core.Document) string
	DocumentText(ctx context.Context, projectID, name string) (string, error)
	SaveDocument(ctx context.Context, projectID, name, content string) error
}

// AskRequest is the body of POST /projects/{id}/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// ProjectRequest is the body of POST /projects.
type ProjectRequest struct {
	ID          string `json:"id" validate:"omitempty,numeric"`
	Name        string `json:"name" validate:"required,max=200"`
	Tag         string `json:"tag" validate:"max=64"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"max=32"`
}

// ContentRequest is the body of PUT /projects/{id}/documents/{name}/text.
type ContentRequest struct {
	Content *string `json:"content" validate:"required"`
}

// ContentResponse carries the plain text of a document.
type ContentResponse struct {
	Content string `json:"content"`
}

// ProjectResponse describes a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentResponse describes a project document.
type DocumentResponse struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// TurnResponse is one message of a conversation.
type TurnResponse struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SessionResponse is the conversation of a project.
type SessionResponse struct {
	ProjectID string         `json:"project_id"`
	SessionID string         `json:"session_id,omitempty"`
	History   []TurnResponse `json:"history"`
}

// Handler serves the project, document and conversation endpoints.
type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a handler backed by service.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger.With("component", "http-handler"),
	}
}

// Ask answers a question about a project.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !h.decode(w, r, &req) {
		return
	}
	answer, err := h.service.Ask(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, answer)
}

// History returns the conversation of a project.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := SessionResponse{
		ProjectID: session.ProjectID,
		SessionID: session.SessionID,
		History:   make([]TurnResponse, 0, len(session.History)),
	}
	for _, turn := range session.History {
		resp.History = append(resp.History, TurnResponse{
			Role:    turn.Role.String(),
			Content: turn.Content,
			At:      turn.At,
		})
	}
	JSON(w, http.StatusOK, resp)
}

// ResetSession discards the conversation of a project.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateProject stores a new project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	project, err := h.service.CreateProject(r.Context(), &core.Project{
		ID:          req.ID,
		Name:        req.Name,
		Tag:         req.Tag,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusCreated, projectResponse(project))
}

// GetProject returns a project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, projectResponse(project))
}

// ListProjects returns every project.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, projectResponse(p))
	}
	JSON(w, http.StatusOK, resp)
}

// DeleteProject removes a project with its documents and conversation.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments returns the documents of a project.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, DocumentResponse{Name: h.service.DocumentName(doc), Format: doc.Format.String()})
	}
	JSON(w, http.StatusOK, resp)
}

// UploadDocument stores the request body as a project document.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := h.documentName(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: reading body: %w", core.ErrValidation, err))
		return
	}
	doc, err := h.service.AddDocument(r.Context(), chi.URLParam(r, "id"), name, data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusCreated, DocumentResponse{Name: h.service.DocumentName(doc), Format: doc.Format.String()})
}

// DocumentText returns the plain text of a document.
func (h *Handler) DocumentText(w http.ResponseWriter, r *http.Request) {
	name, ok := h.documentName(w, r)
	if !ok {
		return
	}
	text, err := h.service.DocumentText(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, ContentResponse{Content: text})
}

// SaveDocumentText replaces a document with edited text.
func (h *Handler) SaveDocumentText(w http.ResponseWriter, r *http.Request) {
	name, ok := h.documentName(w, r)
	if !ok {
		return
	}
	var req ContentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SaveDocument(r.Context(), chi.URLParam(r, "id"), name, *req.Content); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst and validates it, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, err)
			return false
		}
		Error(w, http.StatusBadRequest, "validation", "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		Error(w, http.StatusBadRequest, "validation", validationMessage(err))
		return false
	}
	return true
}

func (h *Handler) documentName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		Error(w, http.StatusBadRequest, "validation", "invalid document name")
		return "", false
	}
	return name, true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func projectResponse(p *core.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Tag:         p.Tag,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}
