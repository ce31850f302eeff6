package docs

import (
	"strings"
)

// Category is one of the recognized documentation folders.
type Category string

const (
	CategoryADRs            Category = "ADRs"
	CategoryRecommendations Category = "Recommendations"
	CategoryStyleGuides     Category = "StyleGuides"
	CategoryStructures      Category = "Structures"
)

// AllCategories lists every recognized category in scan order.
var AllCategories = []Category{
	CategoryADRs,
	CategoryRecommendations,
	CategoryStyleGuides,
	CategoryStructures,
}

// String returns the folder name of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is one of the recognized categories.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves user input to a Category, ignoring case and
// surrounding whitespace. Unknown names yield an ErrInvalidArgument.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", InvalidArgument("category cannot be empty")
	}
	for _, known := range AllCategories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", InvalidArgument("invalid category %q, valid categories are: %s", trimmed, CategoryNames())
}

// CategoryNames returns the comma-separated list of category names.
func CategoryNames() string {
	names := make([]string, len(AllCategories))
	for i, c := range AllCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
