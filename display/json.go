package display

import "encoding/json"

// MarshalJSON renders v indented for terminals and log collectors alike
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
