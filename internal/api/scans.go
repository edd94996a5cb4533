package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/handlers"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/routes"
)

type scanRunner interface {
	RunArchive(ctx context.Context) (scanner.Result, error)
	RunManual(ctx context.Context) (scanner.Result, error)
}

type scansHandler struct {
	scans  scanRunner
	spawn  func(fn func(ctx context.Context))
	logger *slog.Logger
}

// newScansHandler triggers scans on request. spawn runs background scans
// so that shutdown can wait for them.
func newScansHandler(scans scanRunner, spawn func(fn func(ctx context.Context)), logger *slog.Logger) *scansHandler {
	return &scansHandler{
		scans:  scans,
		spawn:  spawn,
		logger: logger.With("handler", "scans"),
	}
}

func (h *scansHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/scans",
		Routes: []routes.Route{
			{
				Method:  "POST",
				Pattern: "/{source}",
				Handler: h.trigger,
				Doc: &openapi.Operation{
					Summary:     "Trigger a scan",
					Description: "Starts the scan in the background. With wait=true the scan runs within the request.",
					Tags:        []string{"scans"},
					Parameters: []*openapi.Parameter{
						openapi.EnumPathParam("source", "Scan source", scanjobs.SourceArchive, scanjobs.SourceManual),
						openapi.QueryParam("wait", "boolean", "Run synchronously", false),
					},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Scan finished", "ScanResult"),
						202: {Description: "Scan started"},
						400: openapi.ResponseRef("BadRequest"),
						409: openapi.ResponseRef("Conflict"),
						503: openapi.ResponseRef("ServiceUnavailable"),
					},
				},
			},
		},
	}
}

func (h *scansHandler) runner(source string) (func(context.Context) (scanner.Result, error), error) {
	switch source {
	case scanjobs.SourceArchive:
		return h.scans.RunArchive, nil
	case scanjobs.SourceManual:
		return h.scans.RunManual, nil
	default:
		return nil, scanner.ErrUnknownSource
	}
}

// trigger starts a scan in the background and answers 202. With ?wait=true
// the scan runs within the request: 200 with the finished job, or 409 when
// another worker holds the lock.
func (h *scansHandler) trigger(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")

	run, err := h.runner(source)
	if err != nil {
		handlers.RespondError(w, h.logger, scanner.MapHTTPStatus(err), err)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		res, err := run(r.Context())
		if err != nil {
			handlers.RespondError(w, h.logger, scanner.MapHTTPStatus(err), err)
			return
		}
		status := http.StatusOK
		if !res.Acquired {
			status = http.StatusConflict
		}
		handlers.RespondJSON(w, status, res)
		return
	}

	h.spawn(func(ctx context.Context) {
		res, err := run(ctx)
		switch {
		case err != nil:
			h.logger.Error("triggered scan failed", "source", source, "error", err)
		case !res.Acquired:
			h.logger.Info("triggered scan skipped, lock held", "source", source)
		}
	})

	handlers.RespondJSON(w, http.StatusAccepted, map[string]string{
		"source": source,
		"status": "accepted",
	})
}
