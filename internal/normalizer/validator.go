package normalizer

import (
	"errors"
	"strings"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Table validation errors.
var (
	ErrNilTable  = errors.New("no table to normalize")
	ErrNoHeaders = errors.New("table has no header row")
)

// Validator checks that a raw table has the shape normalization needs.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that the table exists and has at least one non-blank header.
// A table with headers but no rows is valid and yields an empty dataset.
func (v *Validator) Validate(table *models.Table) error {
	if table == nil {
		return ErrNilTable
	}

	for _, h := range table.Headers {
		if strings.TrimSpace(h) != "" {
			return nil
		}
	}

	return ErrNoHeaders
}
