// Package web embeds the browser side of the dashboard.
package web

import "embed"

// DistFS holds the built static files under dist/.
//
//go:embed dist
var DistFS embed.FS
