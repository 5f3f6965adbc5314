package report

import (
	"encoding/json"
	"io"

	"smellwatch/internal/engine/analyzer"
)

// WriteJSON emits the full report as indented JSON.
func WriteJSON(w io.Writer, rep *analyzer.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
