// Package classifier buckets leads into Valid, Invalid or Unqualified.
package classifier

import (
	"github.com/Leanito/Leadsrecptives/internal/models"
	"github.com/Leanito/Leadsrecptives/pkg/utils"
)

// UnmatchedPolicy is the category given to non-blank status values that match
// no vocabulary. Typos land here together with explicit "sem qualificação".
const UnmatchedPolicy = models.CategoryUnqualified

// Rules lists the status values recognised for each category.
type Rules struct {
	Valid       []string
	Invalid     []string
	Unqualified []string
}

// DefaultRules returns the Portuguese vocabularies used by the sales team.
func DefaultRules() Rules {
	return Rules{
		Valid:       []string{"válido"},
		Invalid:     []string{"inválido"},
		Unqualified: []string{"sem qualificação"},
	}
}

// Classifier maps raw status values to categories.
type Classifier struct {
	lookup map[string]models.Category
}

// New creates a classifier from rules. Values are folded so lookups are
// case-insensitive and ignore surrounding whitespace.
func New(rules Rules) *Classifier {
	lookup := make(map[string]models.Category)

	// Earlier categories win if a value is listed twice.
	add := func(values []string, c models.Category) {
		for _, v := range values {
			key := utils.Fold(v)
			if _, exists := lookup[key]; !exists && key != "" {
				lookup[key] = c
			}
		}
	}

	add(rules.Unqualified, models.CategoryUnqualified)
	add(rules.Valid, models.CategoryValid)
	add(rules.Invalid, models.CategoryInvalid)

	return &Classifier{lookup: lookup}
}

var defaultClassifier = New(DefaultRules())

// Classify classifies a status value with the default rules.
func Classify(status string) models.Category {
	return defaultClassifier.Classify(status)
}

// Classify returns the category for a status value. Blank values are
// Unqualified; unknown values fall back to UnmatchedPolicy.
func (c *Classifier) Classify(status string) models.Category {
	key := utils.Fold(status)
	if key == "" {
		return models.CategoryUnqualified
	}

	if cat, ok := c.lookup[key]; ok {
		return cat
	}

	return UnmatchedPolicy
}

// ClassifyOptional treats a nil status as missing.
func (c *Classifier) ClassifyOptional(status *string) models.Category {
	if status == nil {
		return models.CategoryUnqualified
	}

	return c.Classify(*status)
}

// Apply sets Category on every lead in place.
func (c *Classifier) Apply(leads []models.Lead) {
	for i := range leads {
		leads[i].Category = c.Classify(leads[i].Status)
	}
}
