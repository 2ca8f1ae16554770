package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

//go:embed all:static
var staticFiles embed.FS

// Plant favicon, served inline
const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64"><rect width="64" height="64" rx="12" fill="#2f6b45"/><path d="M32 50V28" stroke="#e8f3ea" stroke-width="4" stroke-linecap="round"/><path d="M32 32C20 32 14 24 14 14c10 0 18 6 18 18z" fill="#8fd19e"/><path d="M32 38c0-10 8-16 18-16 0 10-6 16-18 16z" fill="#b8e6c1"/><path d="M22 50h20l-3 8H25z" fill="#c97b4a"/></svg>`

// assetTypes maps the extensions shipped under static/ to their content type.
// Anything else is not served.
var assetTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "application/javascript",
	".svg": "image/svg+xml",
}

const (
	versionedCache   = "public, max-age=31536000, immutable"
	unversionedCache = "no-cache"
)

// SetupStaticFiles serves the page stylesheet and script from the embedded
// static directory, plus the favicon.
func SetupStaticFiles(s *rweb.Server) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logger.LogErr(err, "failed to get static subdirectory")
		return
	}

	s.Get("/favicon.ico", func(c rweb.Context) error {
		c.Response().SetHeader("Content-Type", assetTypes[".svg"])
		c.Response().SetHeader("Cache-Control", "public, max-age=86400")
		return c.Bytes([]byte(faviconSVG))
	})

	s.Get("/static/*", func(c rweb.Context) error {
		name := strings.TrimPrefix(c.Request().Path(), "/static/")

		contentType, ok := assetTypes[path.Ext(name)]
		if !ok {
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		content, err := fs.ReadFile(staticFS, name)
		if err != nil {
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		c.Response().SetHeader("Content-Type", contentType)
		c.Response().SetHeader("Cache-Control", cacheControl(c.Request().QueryParam("v")))
		return c.Bytes(content)
	})
}

// cacheControl lets browsers keep assets linked with ?v=N for good; the
// page bumps N when an asset changes. Unversioned requests revalidate.
func cacheControl(version string) string {
	if version != "" {
		return versionedCache
	}
	return unversionedCache
}
