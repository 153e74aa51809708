package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/opsboard/internal/models"
)

// ErrMissingColumn marks a dataset whose header lacks a column the
// aggregation pipeline reads. Load fails fast on it instead of surfacing
// an index error mid-aggregation.
var ErrMissingColumn = errors.New("missing required column")

// Source loads the two cleaned tables the dashboard is computed from.
// A failed load aborts startup; there are no retries.
type Source interface {
	Load(ctx context.Context) ([]models.Order, []models.Payment, error)
}

func missingColumn(table, column string) error {
	return fmt.Errorf("%s: %w %q", table, ErrMissingColumn, column)
}
