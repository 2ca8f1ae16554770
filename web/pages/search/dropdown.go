package search

import (
	"html"

	"houseplants/binding"

	"github.com/rohanthewiz/element"
)

// Dropdown renders the body of the search dropdown: the recent searches
// section and, once something is typed, the plant results placeholder.
// With no history and no input it shows a short hint instead.
type Dropdown struct {
	View binding.DropdownView
	// Searching shows the loading skeleton in place of the results message
	Searching bool
}

// Render implements element.Component
func (d Dropdown) Render(b *element.Builder) (x any) {
	b.DivClass("dropdown-body", "data-state", d.View.State.String()).R(
		b.Wrap(func() {
			if d.View.State == binding.NoHistory {
				return
			}
			d.renderRecent(b)
		}),
		b.Wrap(func() {
			if d.View.ShowResults {
				d.renderResults(b)
			} else if d.View.State == binding.NoHistory {
				d.renderEmpty(b)
			}
		}),
	)
	return
}

func (d Dropdown) renderEmpty(b *element.Builder) {
	b.DivClass("dropdown-empty-state").R(
		b.PClass("dropdown-empty").T("No recent searches"),
		b.PClass("dropdown-hint").T("Start typing to search for plants"),
	)
}

func (d Dropdown) renderRecent(b *element.Builder) {
	b.DivClass("dropdown-section recent-searches").R(
		b.DivClass("dropdown-section-header").R(
			b.SpanClass("dropdown-section-title").T("Recent Searches"),
			b.Button("type", "button", "class", "history-clear", "id", "history-clear").T("Clear"),
		),
		b.Wrap(func() {
			if d.View.State == binding.NoMatch {
				b.PClass("dropdown-empty").T("No matching previous searches")
				return
			}
			b.Ul("class", "history-list").R(
				b.Wrap(func() {
					for _, rec := range d.View.Items {
						term := html.EscapeString(rec.Term)
						b.Li("class", "history-item", "role", "option", "tabindex", "0",
							"data-term", term).R(
							b.SpanClass("history-icon").T("🕒"),
							b.SpanClass("history-term").T(term),
						)
					}
				}),
			)
		}),
	)
}

func (d Dropdown) renderResults(b *element.Builder) {
	b.DivClass("dropdown-section plant-results").R(
		b.DivClass("dropdown-section-header").R(
			b.SpanClass("dropdown-section-title").T("Plant Results"),
		),
		b.Wrap(func() {
			if d.Searching {
				b.DivClass("results-skeleton", "aria-busy", "true").R(
					b.DivClass("skeleton-line").R(),
					b.DivClass("skeleton-line").R(),
					b.DivClass("skeleton-line short").R(),
				)
				return
			}
			b.PClass("dropdown-empty").T("API integration coming soon...")
		}),
	)
}

// RenderDropdown returns the dropdown partial as an HTML fragment.
func RenderDropdown(view binding.DropdownView, searching bool) string {
	b := element.NewBuilder()
	element.RenderComponents(b, Dropdown{View: view, Searching: searching})
	return b.String()
}
