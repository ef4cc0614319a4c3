package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/ingest"
	"github.com/moestate/newsdesk/internal/ops"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 4 << 20

// Handlers contains HTTP route handlers for the UI and the JSON API.
type Handlers struct {
	manager   *ops.Manager
	generator *brief.Generator
	catalog   *catalog.Provider
	ingest    *ingest.Service
	logger    *zap.Logger
	renderer  *Renderer
}

// HandleList handles GET /digests.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		Search:   q.Get("search"),
		TimeSpan: q.Get("time_span"),
		Sort:     q.Get("sort"),
	}

	result, err := h.manager.List(r.Context(), input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{Title: "Digests", Version: h.renderer.version},
		Items:    result.Items,
		Total:    result.Total,
		Search:   input.Search,
		TimeSpan: input.TimeSpan,
		Sort:     result.Sort,
		Now:      time.Now(),
	})
}

// HandleDetail handles GET /digests/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.getDigest(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     PageData{Title: d.Title, Version: h.renderer.version},
		Digest:       d,
		RenderedHTML: renderMarkdown(d.Content),
		Now:          time.Now(),
	})
}

// HandleDelete handles DELETE /digests/{id} from the UI.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.manager.Remove(r.Context(), r.PathValue("id"))
	if err != nil && result == nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/digests")
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/digests", http.StatusFound)
}

// HandleAPIList handles GET /api/digests.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.manager.List(r.Context(), ops.ListInput{
		Search:   q.Get("search"),
		TimeSpan: q.Get("time_span"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPICreate handles POST /api/digests.
// A mirror failure after a successful local save still answers 201 and
// reports the failure in the X-Mirror-Error header.
func (h *Handlers) HandleAPICreate(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	form, err := digest.DecodeForm(data)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	d, err := h.manager.Create(r.Context(), form)
	if d == nil {
		h.renderer.renderError(w, r, err)
		return
	}
	setMirrorError(w, err)
	w.Header().Set("Location", "/api/digests/"+d.ID)
	renderJSON(w, http.StatusCreated, d)
}

// HandleAPIGet handles GET /api/digests/{id}.
func (h *Handlers) HandleAPIGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.getDigest(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, d)
}

// HandleAPIUpdate handles PATCH /api/digests/{id}.
// Updating an unknown id is a no-op in the store; over HTTP it is a 404.
func (h *Handlers) HandleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	var patch digest.Patch
	if err := decodeBody(r, &patch); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	id := r.PathValue("id")
	d, err := h.manager.Update(r.Context(), id, patch)
	if d == nil {
		if err == nil {
			err = errors.NewNotFound(id)
		}
		h.renderer.renderError(w, r, err)
		return
	}
	setMirrorError(w, err)
	renderJSON(w, http.StatusOK, d)
}

// HandleAPIDelete handles DELETE /api/digests/{id}.
func (h *Handlers) HandleAPIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.manager.Remove(r.Context(), r.PathValue("id"))
	if result == nil {
		h.renderer.renderError(w, r, err)
		return
	}
	setMirrorError(w, err)
	renderJSON(w, http.StatusOK, result)
}

type appendRequest struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

// HandleAPIAppend handles POST /api/digests/{id}/append.
func (h *Handlers) HandleAPIAppend(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := decodeBody(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.manager.Append(r.Context(), ops.AppendInput{
		ID:      r.PathValue("id"),
		Section: req.Section,
		Content: req.Content,
	})
	if out == nil {
		h.renderer.renderError(w, r, err)
		return
	}
	setMirrorError(w, err)
	renderJSON(w, http.StatusOK, out)
}

// HandleGenerate handles POST /api/generate. Nothing is saved.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req brief.Request
	if err := decodeBody(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := ops.Generate(r.Context(), h.generator, req)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCatalog handles GET /api/catalog?category=.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	var filter *catalog.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, err := catalog.ParseCategory(raw)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest(err.Error()))
			return
		}
		filter = &c
	}

	entries, err := h.catalog.Fetch(r.Context(), filter)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"source":  h.catalog.SourceName(),
		"entries": entries,
	})
}

// HandleExport handles POST /api/export. The body is a digest; the response
// is its indented JSON as a downloadable text file. Unknown keys are dropped.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var d *digest.Digest
	data, err := func() ([]byte, error) {
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		if d, err = digest.Decode(body); err != nil {
			return nil, err
		}
		return ops.Export(d)
	}()
	if err != nil {
		h.logger.Info("export rejected", zap.Error(err))
		renderJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Failed to export digest",
			"details": exportDetails(err),
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleIngest handles GET /api/ingest. It always succeeds.
func (h *Handlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	res := h.ingest.Fetch(r.Context())
	renderJSON(w, http.StatusOK, res)
}

func (h *Handlers) getDigest(r *http.Request) (*digest.Digest, error) {
	id := r.PathValue("id")
	d, err := h.manager.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NewNotFound(id)
	}
	return d, nil
}

// decodeBody decodes a JSON body, rejecting unknown fields and trailing data.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return errors.NewInvalidRequest("invalid JSON body: trailing data")
	}
	return nil
}

// readBody reads a size-limited request body.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("read body: %v", err))
	}
	if len(data) > maxBodyBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("body exceeds %d bytes", maxBodyBytes))
	}
	return data, nil
}

// exportDetails is the field map for validation errors and the message otherwise.
func exportDetails(err error) any {
	appErr := errors.As(err)
	if len(appErr.Details) > 0 {
		return appErr.Details
	}
	return appErr.Message
}

func setMirrorError(w http.ResponseWriter, err error) {
	if err != nil {
		w.Header().Set("X-Mirror-Error", errors.As(err).Message)
	}
}
