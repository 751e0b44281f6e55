package appfs

import "embed"

// FS carries the SQL migrations into the binary.
//go:embed migrations
var FS embed.FS
