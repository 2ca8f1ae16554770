package search

import (
	"strconv"

	"github.com/rohanthewiz/element"
)

// SearchBar is the rounded search input with its dropdown container.
// The page script debounces typing, fetches the dropdown partial, closes the
// dropdown on outside presses and follows the history change feed.
//
// Layout: [🔍 input                      ×]
//
//	[dropdown: recent searches / plant results]
type SearchBar struct {
	DebounceMs      int64
	SearchLatencyMs int64
}

// Render implements element.Component
func (s SearchBar) Render(b *element.Builder) (x any) {
	b.Div("class", "search-container", "id", "search-container",
		"data-debounce-ms", strconv.FormatInt(s.DebounceMs, 10),
		"data-search-latency-ms", strconv.FormatInt(s.SearchLatencyMs, 10)).R(
		b.Form("id", "search-form", "autocomplete", "off").R(
			b.DivClass("search-input-wrapper").R(
				b.SpanClass("search-icon").T("🔍"),
				b.Input("type", "text", "class", "search-input", "id", "search-input",
					"placeholder", "Search for houseplants...",
					"role", "searchbox",
					"aria-label", "Search for houseplants",
					"aria-expanded", "false",
					"aria-autocomplete", "list"),
				// Hidden until there is text to clear
				b.Button("type", "button", "class", "search-clear hidden", "id", "search-clear",
					"aria-label", "Clear search").T("×"),
			),
		),

		// Filled from /partials/dropdown
		b.Div("class", "search-dropdown hidden", "id", "search-dropdown",
			"role", "listbox", "aria-label", "Search suggestions").R(),
	)
	return
}
