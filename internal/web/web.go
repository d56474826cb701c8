// Package web holds the embedded HTML templates.
package web

import "embed"

//go:embed templates/*.html
var FS embed.FS

const Layout = "templates/layout.html"
