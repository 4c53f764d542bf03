package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/render"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// Response bodies for boundary errors.
const (
	msgProjectNotFound = "Project not found"
	msgNotReady        = "Catalog not ready"
	msgInternal        = "Internal server error"
)

// Query parameters.
const (
	paramType   = "type"
	paramIgnore = "ignore_large_commits"
	paramFormat = "format"
)

type handlers struct {
	cat    Catalog
	view   view.Config
	logger *slog.Logger
}

// NewHandler builds the routed, instrumented handler tree.
func NewHandler(cat Catalog, opts Options) http.Handler {
	opts = opts.withDefaults()
	h := &handlers{cat: cat, view: opts.View, logger: opts.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /projects/{name}/{$}", h.project)
	mux.HandleFunc("GET /projects/{name}/get_project", h.document)
	mux.HandleFunc("GET /projects/{name}/chart", h.chart)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(cat.Ready))

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return observability.HTTPMiddleware(opts.Tracer, opts.RED, mux)
}

// index lists the published projects. Last-Modified carries the time the
// listed snapshot was published.
func (h *handlers) index(rw http.ResponseWriter, req *http.Request) {
	snap := h.cat.Snapshot()
	if snap == nil {
		h.fail(rw, req, catalog.ErrNotReady)

		return
	}

	rw.Header().Set("Last-Modified", snap.PublishedAt().UTC().Format(http.TimeFormat))
	h.writeJSON(rw, req, snap.Summaries())
}

func (h *handlers) project(rw http.ResponseWriter, req *http.Request) {
	p, err := h.cat.Project(req.PathValue("name"))
	if err != nil {
		h.fail(rw, req, err)

		return
	}

	h.writeJSON(rw, req, catalog.SummaryOf(p))
}

// document serves the aggregated view. An unrecognized type yields a
// document with empty dates and types rather than an error.
func (h *handlers) document(rw http.ResponseWriter, req *http.Request) {
	doc, err := h.cat.View(req.Context(), req.PathValue("name"), h.configFor(req))
	if err != nil {
		h.fail(rw, req, err)

		return
	}

	format := render.FormatJSON
	if raw := req.URL.Query().Get(paramFormat); raw != "" {
		format, err = render.ValidateFormat(raw, []string{render.FormatJSON, render.FormatYAML})
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)

			return
		}
	}

	if format == render.FormatYAML {
		rw.Header().Set("Content-Type", "application/yaml")
	} else {
		rw.Header().Set("Content-Type", "application/json")
	}

	err = render.Document(doc, format, rw)
	if err != nil {
		h.logger.ErrorContext(req.Context(), "write document failed", "error", err)
	}
}

func (h *handlers) chart(rw http.ResponseWriter, req *http.Request) {
	doc, err := h.cat.View(req.Context(), req.PathValue("name"), h.configFor(req))
	if err != nil {
		h.fail(rw, req, err)

		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")

	err = render.Document(doc, render.FormatPlot, rw)
	if err != nil {
		h.logger.ErrorContext(req.Context(), "write chart failed", "error", err)
	}
}

// configFor takes the view mode from the request and everything else from
// the deployment configuration. The large-commit flag may be overridden per
// request when the parameter parses as a boolean.
func (h *handlers) configFor(req *http.Request) view.Config {
	cfg := h.view
	query := req.URL.Query()
	cfg.Mode = view.ParseMode(query.Get(paramType))

	if raw := query.Get(paramIgnore); raw != "" {
		if ignore, err := strconv.ParseBool(raw); err == nil {
			cfg.IgnoreLargeCommits = ignore
		}
	}

	return cfg
}

func (h *handlers) fail(rw http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrProjectNotFound):
		http.Error(rw, msgProjectNotFound, http.StatusNotFound)
	case errors.Is(err, catalog.ErrNotReady):
		http.Error(rw, msgNotReady, http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(req.Context(), "request failed", "path", req.URL.Path, "error", err)
		http.Error(rw, msgInternal, http.StatusInternalServerError)
	}
}

func (h *handlers) writeJSON(rw http.ResponseWriter, req *http.Request, value any) {
	rw.Header().Set("Content-Type", "application/json")

	err := render.JSON(value, rw)
	if err != nil {
		h.logger.ErrorContext(req.Context(), "failed to encode JSON response", "error", err)
	}
}
