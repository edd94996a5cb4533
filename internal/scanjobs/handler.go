package scanjobs

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/handlers"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/routes"
)

// Handler provides HTTP endpoints for scan jobs.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "scanjobs"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for scan job endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/scan-jobs",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: h.List,
				Doc: &openapi.Operation{
					Summary: "List scan jobs, newest first",
					Tags:    []string{"scans"},
					Parameters: []*openapi.Parameter{
						openapi.QueryParam("page", "integer", "Page number", false),
						openapi.QueryParam("page_size", "integer", "Results per page", false),
						openapi.QueryParam("source", "string", "archive or manual", false),
						openapi.QueryParam("status", "string", "Comma-separated RUNNING, COMPLETED or FAILED", false),
						openapi.QueryParam("since", "string", "Started at or after (RFC 3339 or YYYY-MM-DD)", false),
						openapi.QueryParam("until", "string", "Started before (RFC 3339 or YYYY-MM-DD)", false),
					},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponsePage("Scan jobs", "ScanJob"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Doc: &openapi.Operation{
					Summary:    "Find a scan job",
					Tags:       []string{"scans"},
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "Scan job id")},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Scan job", "ScanJob"),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

// List returns scan jobs, newest first.
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

	job, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, job)
}
