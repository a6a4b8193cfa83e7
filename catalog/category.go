package catalog

// Logic modes of a stored category definition.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// CategoryRule is a single {field, operator, value} condition of a category.
// Value is kept loosely typed because definitions are stored as JSON.
type CategoryRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Category is a named, stored facet configuration.
type Category struct {
	Name   string         `json:"name"`
	Slug   string         `json:"slug"`
	Logic  string         `json:"logic"`
	Rules  []CategoryRule `json:"rules"`
	SortBy string         `json:"sortBy,omitempty"`
}
