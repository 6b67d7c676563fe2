package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tally.space/internal/engine/recipe"
)

// RecipeRunner is the interpreter surface the recipe tools call.
type RecipeRunner interface {
	Execute(ctx context.Context, name string, inputs map[string]any) (map[string]any, error)
	Recipes() *recipe.Set
}

// ExecuteRecipeInput represents the MCP tool input for recipe
// execution.
type ExecuteRecipeInput struct {
	Name   string         `json:"name" jsonschema:"registered recipe name"`
	Inputs map[string]any `json:"inputs,omitempty" jsonschema:"recipe input values keyed by parameter name"`
}

// ExecuteRecipeResult represents the MCP tool output for recipe
// execution. Null reports a recipe that short-circuited to a null
// result via an on_fail directive.
type ExecuteRecipeResult struct {
	Result map[string]any `json:"result,omitempty" jsonschema:"recipe result object"`
	Null   bool           `json:"null,omitempty" jsonschema:"true when the recipe returned a null result"`
}

// ListRecipesInput represents the MCP tool input for recipe listings.
type ListRecipesInput struct{}

// ListRecipesResult represents the MCP tool output for recipe
// listings.
type ListRecipesResult struct {
	Count   int                       `json:"count" jsonschema:"number of registered recipes"`
	Recipes map[string]recipe.Summary `json:"recipes" jsonschema:"recipe summaries keyed by name"`
}

// ExecuteRecipeTool defines the MCP tool schema for recipe execution.
func ExecuteRecipeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "execute_recipe",
		Description: "Runs a named recipe with the given inputs against the accounting engine",
	}
}

// ListRecipesTool defines the MCP tool schema for recipe listings.
func ListRecipesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_recipes",
		Description: "Lists every registered recipe with its description and inputs",
	}
}

// ExecuteRecipeHandler executes a recipe run.
func ExecuteRecipeHandler(runner RecipeRunner) mcp.ToolHandlerFor[ExecuteRecipeInput, ExecuteRecipeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExecuteRecipeInput) (*mcp.CallToolResult, ExecuteRecipeResult, error) {
		inputs := input.Inputs
		if inputs == nil {
			inputs = map[string]any{}
		}
		result, err := runner.Execute(ctx, input.Name, inputs)
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, ExecuteRecipeResult{}, fmt.Errorf("recipe %q is not registered", input.Name)
		}
		if err != nil {
			return nil, ExecuteRecipeResult{}, fmt.Errorf("recipe execution failed: %w", err)
		}
		if result == nil {
			return nil, ExecuteRecipeResult{Null: true}, nil
		}
		return nil, ExecuteRecipeResult{Result: result}, nil
	}
}

// ListRecipesHandler returns the recipe listing.
func ListRecipesHandler(runner RecipeRunner) mcp.ToolHandlerFor[ListRecipesInput, ListRecipesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListRecipesInput) (*mcp.CallToolResult, ListRecipesResult, error) {
		list := runner.Recipes().List()
		return nil, ListRecipesResult{Count: len(list), Recipes: list}, nil
	}
}
