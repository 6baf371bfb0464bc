package backend

import "embed"

//go:embed schemas
var schemaFS embed.FS
