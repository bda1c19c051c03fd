package users

import (
	"context"

	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
)

// Repository stores account credentials.
type Repository interface {
	// Create inserts user and fills in its generated ID and CreatedAt.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
