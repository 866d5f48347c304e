package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Category is a user-facing classification label for records and budgets.
// Categories are configuration data, not a stored relation: a record's
// category is a free-text code with no enforced referential integrity.
type Category struct {
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Icon      string    `json:"icon"`
	Direction Direction `json:"direction"`
}

// Catalog is the configured set of categories offered to the UI.
type Catalog []Category

// DefaultCatalog returns the seeded category set used when no categories
// file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		{Code: "food", Label: "Food & Groceries", Icon: "🍚", Direction: Expense},
		{Code: "dining", Label: "Dining Out", Icon: "🍜", Direction: Expense},
		{Code: "transport", Label: "Transport", Icon: "🚇", Direction: Expense},
		{Code: "housing", Label: "Housing", Icon: "🏠", Direction: Expense},
		{Code: "utilities", Label: "Utilities", Icon: "💡", Direction: Expense},
		{Code: "health", Label: "Health", Icon: "💊", Direction: Expense},
		{Code: "education", Label: "Education", Icon: "📚", Direction: Expense},
		{Code: "entertainment", Label: "Entertainment", Icon: "🎮", Direction: Expense},
		{Code: "clothing", Label: "Clothing", Icon: "👕", Direction: Expense},
		{Code: "travel", Label: "Travel", Icon: "✈️", Direction: Expense},
		{Code: "gifts", Label: "Gifts", Icon: "🎁", Direction: Expense},
		{Code: "other_expense", Label: "Other Expense", Icon: "📦", Direction: Expense},
		{Code: "salary", Label: "Salary", Icon: "💰", Direction: Income},
		{Code: "bonus", Label: "Bonus", Icon: "🧧", Direction: Income},
		{Code: "investment", Label: "Investment", Icon: "📈", Direction: Income},
		{Code: "other_income", Label: "Other Income", Icon: "🪙", Direction: Income},
	}
}

// LoadCatalog reads a catalog from a JSON file, falling back to the default
// set when path is empty. Entries with an invalid direction are rejected.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	for i, c := range cat {
		if c.Code == "" {
			return nil, fmt.Errorf("categories file entry %d: empty code", i)
		}
		if err := c.Direction.Validate(); err != nil {
			return nil, fmt.Errorf("categories file entry %q: %w", c.Code, err)
		}
	}
	return cat, nil
}

// ByDirection returns the subset of the catalog with the given direction.
func (c Catalog) ByDirection(d Direction) Catalog {
	var out Catalog
	for _, cat := range c {
		if cat.Direction == d {
			out = append(out, cat)
		}
	}
	return out
}
