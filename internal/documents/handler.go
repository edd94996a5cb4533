package documents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/handlers"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/routes"
)

// Handler provides read-only HTTP endpoints for documents.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "documents"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Doc: listDoc},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, Doc: findDoc},
			{Method: "GET", Pattern: "/{id}/content", Handler: h.Download, Doc: downloadDoc},
			{Method: "POST", Pattern: "/search", Handler: h.Search, Doc: searchDoc},
		},
	}
}

var (
	listDoc = &openapi.Operation{
		Summary: "List documents",
		Tags:    []string{"documents"},
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Filename search", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("status", "string", "Assignment status", false),
			openapi.QueryParam("scope", "string", "Eight-digit scope code", false),
			openapi.QueryParam("employee_id", "string", "Employee id", false),
			openapi.QueryParam("source", "string", "Ingestion source", false),
			openapi.QueryParam("since", "string", "Ingested at or after (RFC 3339 or YYYY-MM-DD)", false),
			openapi.QueryParam("until", "string", "Ingested before (RFC 3339 or YYYY-MM-DD)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponsePage("Documents", "Document"),
		},
	}
	findDoc = &openapi.Operation{
		Summary:    "Find a document",
		Tags:       []string{"documents"},
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	}
	downloadDoc = &openapi.Operation{
		Summary:     "Download document content",
		Description: "Decrypts the stored blob and verifies it against the recorded content hash.",
		Tags:        []string{"documents"},
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document id")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Original file bytes"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	}
	searchDoc = &openapi.Operation{
		Summary:     "Search documents",
		Tags:        []string{"documents"},
		RequestBody: openapi.RequestBodyJSON("SearchRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponsePage("Documents", "Document"),
			400: openapi.ResponseRef("BadRequest"),
		},
	}
)

// List returns a paginated list of documents filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Download streams the decrypted, hash-verified content as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	data, err := h.sys.Content(r.Context(), doc)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	contentType := doc.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.Filename),
	)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
