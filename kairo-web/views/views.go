// Package views embeds the markup fragments of the client. The API serves
// them over HTTP; the client can also read them directly in offline mode.
package views

import "embed"

//go:embed *.html
var FS embed.FS
