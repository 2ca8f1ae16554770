package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"houseplants/models"
	"houseplants/storage"

	"github.com/goccy/go-json"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// ClientIDKey is the context key ClientMiddleware stores the client id under.
const ClientIDKey = "client_id"

const (
	defaultChangeWait = 25 * time.Second
	maxChangeWait     = 55 * time.Second
)

// Handlers serves the history endpoints. Each browser's history lives in
// its own namespace of the shared store, selected by the client id.
type Handlers struct {
	store storage.Store
	feed  *ChangeFeed
}

// NewHandlers wires handlers to the shared store.
func NewHandlers(store storage.Store) *Handlers {
	return &Handlers{store: store, feed: NewChangeFeed(store)}
}

// Close releases any pending long-poll requests.
func (h *Handlers) Close() {
	h.feed.Close()
}

// HistoryFor returns the history service for the requesting client.
func (h *Handlers) HistoryFor(ctx rweb.Context) (*models.HistoryService, bool) {
	clientID, _ := ctx.Get(ClientIDKey).(string)
	if clientID == "" {
		return nil, false
	}
	return models.NewHistoryService(storage.NewScoped(h.store, clientID)), true
}

// SearchInput is the body of POST /api/v1/history
type SearchInput struct {
	Term string `json:"term"`
}

// ResultCountInput is the body of PUT /api/v1/history/result-count
type ResultCountInput struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ChangesOutput is returned by the change feed
type ChangesOutput struct {
	Revision int64 `json:"revision"`
	Changed  bool  `json:"changed"`
}

// GetHistory handles GET /api/v1/history
func (h *Handlers) GetHistory(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}
	return writeSuccess(ctx, http.StatusOK, svc.GetAll())
}

// AddSearch handles POST /api/v1/history
// Records a submitted or reselected search and returns the updated history.
func (h *Handlers) AddSearch(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	var input SearchInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to decode request body"), "invalid JSON")
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if strings.TrimSpace(input.Term) == "" {
		return writeError(ctx, http.StatusBadRequest, "term is required")
	}

	if !svc.Add(input.Term) {
		return writeError(ctx, http.StatusInternalServerError, "failed to save search history")
	}

	logger.Debug("Search recorded", "term", strings.TrimSpace(input.Term))
	return writeSuccess(ctx, http.StatusOK, svc.GetAll())
}

// ClearHistory handles DELETE /api/v1/history
func (h *Handlers) ClearHistory(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	if !svc.Clear() {
		return writeError(ctx, http.StatusInternalServerError, "failed to clear search history")
	}
	return writeSuccess(ctx, http.StatusOK, models.EmptyEnvelope())
}

// UpdateResultCount handles PUT /api/v1/history/result-count
// Reserved for the plant search API once it reports result counts.
func (h *Handlers) UpdateResultCount(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	var input ResultCountInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to decode request body"), "invalid JSON")
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if input.Count < 0 {
		return writeError(ctx, http.StatusBadRequest, "count must not be negative")
	}

	if !svc.UpdateResultCount(input.Term, input.Count) {
		return writeError(ctx, http.StatusNotFound, "search not found in history")
	}
	return writeSuccess(ctx, http.StatusOK, svc.GetAll())
}

// Changes handles GET /api/v1/history/changes
//
// Query parameters:
//   - since: last revision the page has seen; omitted returns the current revision at once
//   - wait: how long to hold the request open, e.g. 25s (capped)
func (h *Handlers) Changes(ctx rweb.Context) error {
	clientID, _ := ctx.Get(ClientIDKey).(string)
	if clientID == "" {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	sinceStr := ctx.Request().QueryParam("since")
	if sinceStr == "" {
		return writeSuccess(ctx, http.StatusOK, ChangesOutput{Revision: h.feed.Revision(clientID)})
	}
	since, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil || since < 0 {
		return writeError(ctx, http.StatusBadRequest, "invalid since parameter")
	}

	wait := defaultChangeWait
	if waitStr := ctx.Request().QueryParam("wait"); waitStr != "" {
		wait, err = time.ParseDuration(waitStr)
		if err != nil || wait < 0 {
			return writeError(ctx, http.StatusBadRequest, "invalid wait parameter")
		}
		if wait > maxChangeWait {
			wait = maxChangeWait
		}
	}

	rev := h.feed.Wait(clientID, since, wait)
	return writeSuccess(ctx, http.StatusOK, ChangesOutput{Revision: rev, Changed: rev != since})
}

// ExportHistory handles GET /api/v1/history/export?format=json|msgpack
func (h *Handlers) ExportHistory(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	format := ctx.Request().QueryParam("format")
	if format == "" {
		format = models.FormatJSON
	}

	data, err := svc.Export(format)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	contentType := "application/json"
	if format == models.FormatMsgPack {
		contentType = "application/msgpack"
	}
	ctx.Response().SetHeader("Content-Type", contentType)
	ctx.Response().SetHeader("Content-Disposition", `attachment; filename="search-history.`+format+`"`)
	return ctx.Bytes(data)
}

// ImportHistory handles POST /api/v1/history/import?format=json|msgpack
// The raw request body is the snapshot.
func (h *Handlers) ImportHistory(ctx rweb.Context) error {
	svc, ok := h.HistoryFor(ctx)
	if !ok {
		return writeError(ctx, http.StatusUnauthorized, "missing client identity")
	}

	format := ctx.Request().QueryParam("format")
	if format != "" && format != models.FormatJSON && format != models.FormatMsgPack {
		return writeError(ctx, http.StatusBadRequest, "unsupported format")
	}
	if _, err := models.DecodeSnapshot(ctx.Request().Body(), format); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid snapshot")
	}

	if !svc.Import(ctx.Request().Body(), format) {
		return writeError(ctx, http.StatusInternalServerError, "failed to import search history")
	}
	return writeSuccess(ctx, http.StatusOK, svc.GetAll())
}
