package main

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v as indented JSON. HTML escaping is off so command
// lines such as "sh -c 'a && b'" print as written.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
