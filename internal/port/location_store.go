package port

import (
	"context"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

type LocationStore interface {
	// LoadLocation returns the zero PersistedLocation when nothing was saved yet.
	LoadLocation(ctx context.Context) (domain.PersistedLocation, error)

	// SaveLocation overwrites the single slot.
	SaveLocation(ctx context.Context, loc domain.PersistedLocation) error
}

// ReceiptJournal keeps a local copy of every acknowledged order.
type ReceiptJournal interface {
	RecordReceipt(ctx context.Context, c domain.Confirmation) error
}
