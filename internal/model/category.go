package model

import "fmt"

// Category is the closed set of classification buckets a document can belong to.
type Category string

const (
	CategoryElectrical     Category = "electrical"
	CategoryMechanical     Category = "mechanical"
	CategoryProcess        Category = "process"
	CategorySafetyAnalysis Category = "safety-analysis"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryElectrical,
		CategoryMechanical,
		CategoryProcess,
		CategorySafetyAnalysis,
	}
}

// Valid reports whether c is a member of the enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectrical, CategoryMechanical, CategoryProcess, CategorySafetyAnalysis:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory converts an identifier into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
