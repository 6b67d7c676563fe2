package recipe

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// Load reads a recipe document from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a recipe document from its JSON form.
func Parse(data []byte) (*Set, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse recipe document: %w", err)
	}
	recipes := def.Recipes
	if recipes == nil {
		recipes = map[string]Recipe{}
	}
	return &Set{recipes: recipes, entities: def.Entities}, nil
}

// LoadOrEmpty loads a recipe document, falling back to an empty set
// when the document is absent or malformed. Startup continues either
// way; the failure is logged, not fatal.
func LoadOrEmpty(path string) *Set {
	set, err := Load(path)
	if err != nil {
		log.Printf("recipes: %v; continuing with an empty recipe set", err)
		return Empty()
	}
	return set
}
