// Package recipe loads and executes declarative operation sequences
// against the accounting engine. A recipe is a named, parameterized,
// ordered list of operations (transfer, balance, get_metadata) whose
// account identifiers and amounts are resolved by interpolating
// {placeholder} templates against caller inputs and intermediate
// stored results.
package recipe

import "errors"

// OpType identifies one of the closed set of recipe operations.
type OpType string

const (
	OpTransfer    OpType = "transfer"
	OpBalance     OpType = "balance"
	OpGetMetadata OpType = "get_metadata"
)

var (
	// ErrRecipeNotFound reports execution of an unregistered recipe name.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrConditionFailed reports a balance operation whose declared
	// condition evaluated to false.
	ErrConditionFailed = errors.New("balance condition failed")
	// ErrUnknownOperation reports an operation type outside the closed
	// set.
	ErrUnknownOperation = errors.New("unknown operation type")
	// ErrUnparseableAmount reports an amount expression that resolved to
	// something non-numeric.
	ErrUnparseableAmount = errors.New("cannot evaluate amount")
)

// Operation is one step of a recipe. Which fields are meaningful
// depends on Type: transfer uses From/To/Amount/Metadata, balance uses
// Account/Condition, get_metadata uses Account/Field. Text marks a
// transfer or balance as carrying long-form content through the text
// store instead of a hashed balance.
type Operation struct {
	Type      OpType            `json:"type"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Account   string            `json:"account,omitempty"`
	Amount    any               `json:"amount,omitempty"`
	Condition string            `json:"condition,omitempty"`
	OnFail    string            `json:"on_fail,omitempty"`
	Field     string            `json:"field,omitempty"`
	Text      bool              `json:"text,omitempty"`
	StoreAs   string            `json:"store_as,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Recipe is a static, read-only operation sequence.
type Recipe struct {
	Description string            `json:"description"`
	Inputs      []string          `json:"inputs"`
	Operations  []Operation       `json:"operations"`
	Return      map[string]string `json:"return,omitempty"`
}

// Definition is the shape of a recipe document: entity account-template
// declarations plus the recipes themselves.
type Definition struct {
	SchemaVersion string            `json:"schema_version"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Primitives    map[string]string `json:"primitives,omitempty"`
	Entities      map[string]string `json:"entities,omitempty"`
	Recipes       map[string]Recipe `json:"recipes"`
}

// Summary describes a recipe for listings without exposing its
// operations.
type Summary struct {
	Description     string   `json:"description"`
	Inputs          []string `json:"inputs"`
	OperationsCount int      `json:"operations_count"`
}

// Set is an immutable collection of named recipes, loaded once at
// process start.
type Set struct {
	recipes  map[string]Recipe
	entities map[string]string
}

// Empty returns a set with no recipes.
func Empty() *Set {
	return &Set{recipes: map[string]Recipe{}}
}

// Get returns the named recipe.
func (s *Set) Get(name string) (Recipe, bool) {
	r, ok := s.recipes[name]
	return r, ok
}

// Len reports the number of registered recipes.
func (s *Set) Len() int {
	return len(s.recipes)
}

// List summarizes every registered recipe by name.
func (s *Set) List() map[string]Summary {
	out := make(map[string]Summary, len(s.recipes))
	for name, r := range s.recipes {
		out[name] = Summary{
			Description:     r.Description,
			Inputs:          r.Inputs,
			OperationsCount: len(r.Operations),
		}
	}
	return out
}

// Entities returns the entity-to-account-template declarations from
// the loaded document.
func (s *Set) Entities() map[string]string {
	return s.entities
}
