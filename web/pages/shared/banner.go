package shared

import "github.com/rohanthewiz/element"

// Banner is the page header with the app title and a leaf mark.
type Banner struct {
	Title string
}

func (b Banner) Render(builder *element.Builder) any {
	builder.HeaderClass("page-header").R(
		builder.H1().R(
			builder.SpanClass("page-logo", "aria-hidden", "true").T("🌿"),
			builder.T(" "+b.Title),
		),
	)
	return nil
}
