// Package search renders the houseplant search page and its dropdown.
package search

import (
	"time"

	"houseplants/web/pages/shared"

	"github.com/rohanthewiz/element"
)

// Page is the single page of the app: a header, the search bar and a footer.
type Page struct {
	shared.Page
	// Debounce and SearchLatency are handed to the page script
	Debounce      time.Duration
	SearchLatency time.Duration
}

// NewPage creates the search page with the given input timings.
func NewPage(debounce, searchLatency time.Duration) Page {
	return Page{
		Page:          shared.Page{Title: "Houseplant Encyclopedia"},
		Debounce:      debounce,
		SearchLatency: searchLatency,
	}
}

// Render generates the complete HTML for the page
func (p Page) Render() string {
	b := element.NewBuilder()

	b.Html("lang", "en").R(
		p.renderHead(b),
		p.renderBody(b),
	)

	return b.String()
}

func (p Page) renderHead(b *element.Builder) any {
	return b.Head().R(
		b.Meta("charset", "UTF-8"),
		b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
		b.Title().T(p.Title),
		b.Link("rel", "stylesheet", "href", "/static/css/search.css?v=1"),
	)
}

func (p Page) renderBody(b *element.Builder) any {
	return b.Body().R(
		element.RenderComponents(b, p.Banner()),

		b.Main("class", "page-main").R(
			element.RenderComponents(b, SearchBar{
				DebounceMs:      p.Debounce.Milliseconds(),
				SearchLatencyMs: p.SearchLatency.Milliseconds(),
			}),
		),

		element.RenderComponents(b, p.Footer()),

		b.Script("src", "/static/js/search.js?v=1").R(),
	)
}
