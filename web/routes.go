package web

import (
	"net/http"

	"houseplants/binding"
	"houseplants/web/pages/search"

	"github.com/rohanthewiz/rweb"
)

// setupRoutes configures all application routes
func (a *App) setupRoutes(s *rweb.Server) {
	// Page routes - HTML responses
	s.Get("/", func(ctx rweb.Context) error {
		ctx.Response().SetHeader("Content-Type", "text/html; charset=utf-8")
		page := search.NewPage(a.cfg.Debounce, a.cfg.SearchLatency)
		return ctx.WriteHTML(page.Render())
	})

	// Dropdown body for the current input, rendered from the client's history
	s.Get("/partials/dropdown", a.dropdownPartial)

	// API v1 routes - JSON responses
	s.Get("/api/v1/history", a.history.GetHistory)                     // Recent searches
	s.Post("/api/v1/history", a.history.AddSearch)                     // Record a search
	s.Delete("/api/v1/history", a.history.ClearHistory)                // Forget all searches
	s.Put("/api/v1/history/result-count", a.history.UpdateResultCount) // Attach a result count
	s.Get("/api/v1/history/changes", a.history.Changes)                // Long-poll for changes
	s.Get("/api/v1/history/export", a.history.ExportHistory)           // Download a snapshot
	s.Post("/api/v1/history/import", a.history.ImportHistory)          // Replace from a snapshot
}

// dropdownPartial handles GET /partials/dropdown?q=<input>&searching=1
func (a *App) dropdownPartial(ctx rweb.Context) error {
	ctx.Response().SetHeader("Content-Type", "text/html; charset=utf-8")

	svc, ok := a.history.HistoryFor(ctx)
	if !ok {
		ctx.SetStatus(http.StatusUnauthorized)
		return ctx.WriteHTML("")
	}

	view := binding.FilterDropdown(svc.GetAll().Searches, ctx.Request().QueryParam("q"))
	searching := ctx.Request().QueryParam("searching") == "1"
	return ctx.WriteHTML(search.RenderDropdown(view, searching))
}
