// Package views embeds the html templates served by the router.
package views

import "embed"

//go:embed layouts/*.html pages/*.html partials/*.html
var FS embed.FS
