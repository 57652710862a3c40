// Package analysis defines the records produced by a style analysis.
package analysis

import (
	"encoding/json"
	"strings"
)

// UnknownSkinTone is the classification label used when no analysis is on display.
const UnknownSkinTone = "Unknown"

// Advice is the structured styling guidance returned by the analysis service.
// JSON keys match the service's advice document.
type Advice struct {
	OutfitCasual  string     `json:"outfit_casual"`
	OutfitFormal  string     `json:"outfit_formal"`
	ColorsToWear  StringList `json:"colors_to_wear"`
	ColorsToAvoid StringList `json:"colors_to_avoid"`
	ShoppingList  StringList `json:"shopping_list,omitempty"`
}

// Result is one completed analysis. It is the unit stored in history and
// is never modified after it is built.
type Result struct {
	// ID is a ULID; unique within the history log and ordered by creation time
	ID string `json:"id"`

	// Date is the human-readable local creation date
	Date string `json:"date"`

	// Gender is the attribute selector value the analysis was requested with
	Gender string `json:"gender"`

	// SkinTone is the classification label returned by the service
	SkinTone string `json:"skin_tone"`

	Advice Advice `json:"advice"`

	// Preview is the photo as a data URI; only kept when embed_preview is on
	Preview string `json:"preview,omitempty"`
}

// Label is the summary shown for the record in the history list.
func (r Result) Label() string {
	tone := strings.TrimSpace(r.SkinTone)
	if tone == "" {
		tone = UnknownSkinTone
	}
	if g := strings.TrimSpace(r.Gender); g != "" {
		return tone + " Profile · " + g
	}
	return tone + " Profile"
}

// StringList is a list of strings that also accepts a single JSON string.
// The service produces advice with a language model and occasionally emits
// "a, b, c" where a list was asked for.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	parts := strings.Split(single, ",")
	items = make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	*l = items
	return nil
}
