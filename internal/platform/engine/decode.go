package engine

import (
	"encoding/json"
	"fmt"
)

// Decode copies a bridge reply into a typed record through its JSON tags.
// Pricer replies mirror the output model's wire shape field for field, so
// a round trip through encoding/json is the whole mapping; json narrows
// the reply's float64 numbers to the record's declared types.
func Decode(m map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("engine: encode reply: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("engine: decode reply: %w", err)
	}
	return nil
}
