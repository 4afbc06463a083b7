// internal/domain/category.go
package domain

// CategoryRegistry is the closed set of valid transaction categories plus an
// alias map resolved once at construction. Lookups never scan or substring
// match; an unknown label is simply invalid.
type CategoryRegistry struct {
	canonical map[string]struct{}
	aliases   map[string]string
}

// DefaultCategories is the category set the ledger ships with.
var DefaultCategories = []string{
	"food",
	"groceries",
	"transport",
	"entertainment",
	"shopping",
	"bills",
	"rent",
	"health",
	"education",
	"travel",
	"salary",
	"freelance",
	"investment",
	"gift",
	"other",
}

// DefaultAliases maps common alternative labels onto canonical categories.
var DefaultAliases = map[string]string{
	"dining":      "food",
	"restaurant":  "food",
	"grocery":     "groceries",
	"commute":     "transport",
	"fuel":        "transport",
	"movies":      "entertainment",
	"utilities":   "bills",
	"electricity": "bills",
	"medical":     "health",
	"doctor":      "health",
	"tuition":     "education",
	"wage":        "salary",
	"stocks":      "investment",
	"misc":        "other",
}

// NewCategoryRegistry builds a registry from canonical categories and an
// alias map. Alias targets must be canonical; unknown targets are dropped.
func NewCategoryRegistry(categories []string, aliases map[string]string) *CategoryRegistry {
	r := &CategoryRegistry{
		canonical: make(map[string]struct{}, len(categories)),
		aliases:   make(map[string]string, len(aliases)),
	}
	for _, c := range categories {
		r.canonical[NormalizeCategory(c)] = struct{}{}
	}
	for alias, target := range aliases {
		target = NormalizeCategory(target)
		if _, ok := r.canonical[target]; ok {
			r.aliases[NormalizeCategory(alias)] = target
		}
	}
	return r
}

// DefaultCategoryRegistry returns a registry with the shipped categories and
// aliases.
func DefaultCategoryRegistry() *CategoryRegistry {
	return NewCategoryRegistry(DefaultCategories, DefaultAliases)
}

// Resolve normalizes a raw label and maps aliases to their canonical
// category. The second return value is false when the label is not in the
// closed set.
func (r *CategoryRegistry) Resolve(raw string) (string, bool) {
	label := NormalizeCategory(raw)
	if label == "" {
		return "", false
	}
	if target, ok := r.aliases[label]; ok {
		return target, true
	}
	if _, ok := r.canonical[label]; ok {
		return label, true
	}
	return "", false
}
