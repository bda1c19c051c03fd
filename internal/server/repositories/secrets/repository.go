// Package secrets declares and implements storage for sealed vault records.
package secrets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
)

// Repository persists secrets. Owner-scoped methods never touch another
// owner's rows and report common.ErrorNotFound instead.
type Repository interface {
	Create(ctx context.Context, secret *models.Secret) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error)
	GetByOwner(ctx context.Context, ownerID, id string) (*models.Secret, error)
	Replace(ctx context.Context, secret *models.Secret) error
	DeleteByOwner(ctx context.Context, ownerID, id string) error

	// ListAll is a system-level bulk read that ignores ownership.
	ListAll(ctx context.Context) ([]*models.Secret, error)

	// UpdateExposure sets the exposure fields and last_checked, but only while
	// the record still holds the sealed value with the given nonce. Applying
	// the same values twice leaves the same row apart from last_checked.
	UpdateExposure(ctx context.Context, id, nonce string, count int64, state models.ExposureState, checkedAt time.Time) error
}
