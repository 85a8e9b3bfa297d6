package notify

import (
	"context"

	"ovpnsync/internal/types"
)

// NotifierType represents the type of notifier
type NotifierType string

const (
	NotifierWebhook NotifierType = "webhook"
)

// Notifier represents notifier interface
type Notifier interface {
	// NotifyAddressChange sends an address change notification
	NotifyAddressChange(ctx context.Context, change *types.AddressChange) error

	// Health checks the health of the notifier
	Health(ctx context.Context) error
}
