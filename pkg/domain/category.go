package domain

import (
	"fmt"
	"strings"
)

// Category is a topical label assigned to a news item
type Category string

// enum of known categories, ordered from the most specific to the fallback
const (
	CategoryClinical   Category = "clinical"
	CategoryCommercial Category = "commercial"
	CategoryGeneral    Category = "general"
)

// AllCategories returns the closed set of categories in priority order
func AllCategories() []Category {
	return []Category{CategoryClinical, CategoryCommercial, CategoryGeneral}
}

// ParseCategory converts a string to Category, case-insensitive
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether the category belongs to the known set
func (c Category) Valid() bool {
	switch c {
	case CategoryClinical, CategoryCommercial, CategoryGeneral:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }
