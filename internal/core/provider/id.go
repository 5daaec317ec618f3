package provider

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// ID 供應商回傳的食譜 id，可能是數字或字串
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recipe id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
