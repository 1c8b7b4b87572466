// Package appfs exposes the repository's embedded static files.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
