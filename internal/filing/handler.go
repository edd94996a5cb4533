package filing

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/handlers"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/routes"
)

// Handler provides read-only HTTP endpoints for personnel files.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "filing"),
	}
}

// Routes returns the route group definition for personnel file endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/personnel-files",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Doc: &openapi.Operation{
					Summary:    "Find a personnel file",
					Tags:       []string{"filing"},
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "Personnel file id")},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Personnel file", "PersonnelFile"),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}/entries",
				Handler: h.Entries,
				Doc: &openapi.Operation{
					Summary:    "List a personnel file's entries",
					Tags:       []string{"filing"},
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "Personnel file id")},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSONArray("Entries in entry-number order", "Entry"),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	pf, err := h.sys.FindFile(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, pf)
}

// Entries lists a file's entries in entry-number order.
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	if _, err := h.sys.FindFile(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	entries, err := h.sys.Entries(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}
