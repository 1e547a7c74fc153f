package events

import (
	"context"

	"github.com/ledgerbank/backend/internal/models"
)

// Publisher delivers committed ledger movements to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.TransactionCompleted) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.TransactionCompleted) error {
	return nil
}

var _ Publisher = NopPublisher{}
