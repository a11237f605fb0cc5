package export

import (
	"encoding/json"
	"io"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// WriteJSON writes the result contract followed by a newline. Compact output
// puts the whole object on one line; otherwise it is indented by two spaces.
func WriteJSON(w io.Writer, result model.Result, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
