package bank

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed seed/items.json
var seedFS embed.FS

// SeedItems returns the built-in item bank shipped with the binary.
func SeedItems() ([]Item, error) {
	data, err := seedFS.ReadFile("seed/items.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded seed items: %w", err)
	}
	return ParseItems(data)
}

// ParseItems decodes and validates an items JSON document.
func ParseItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d invalid: %w", i+1, err)
		}
	}
	return items, nil
}
