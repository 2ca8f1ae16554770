// Package shared holds page chrome used around every page body.
package shared

// Page is embedded by pages to get the common banner and footer.
type Page struct {
	Title string
}

func (p Page) Banner() Banner {
	return Banner{Title: p.Title}
}

func (p Page) Footer() Footer {
	return Footer{}
}
