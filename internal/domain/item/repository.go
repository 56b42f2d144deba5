package item

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository is the read side of the item store plus the catalog upsert.
// Flag mutations go through the booking unit of work, never through here.
type ItemRepository interface {
	// FindByID retrieves an item by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// ListIDs returns every known item identifier.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// UpsertCatalog inserts a new item or refreshes the catalog attributes of an
	// existing one, keeping its administrative flag.
	UpsertCatalog(ctx context.Context, item *Item) error
}
