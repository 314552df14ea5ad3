// Package web holds the page template and the assets it links to.
package web

import "embed"

// TemplatesFS holds index.html, which also defines the "content" block
// returned to HTMX requests.
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
