package ports

import (
	"context"

	"github.com/aretw0/bake/pkg/domain"
)

// HistoryStore persists the reports of finished runs.
type HistoryStore interface {
	// Save stores report under report.ID, replacing any previous report.
	Save(ctx context.Context, report *domain.RunReport) error

	// Load returns the report stored under id.
	// Returns domain.ErrRunNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.RunReport, error)

	// List returns the stored run IDs, oldest run first.
	List(ctx context.Context) ([]string, error)

	// Delete removes a report. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
