// Package accounts defines the account repository contract and its
// PostgreSQL implementation. The flat-file implementation lives in the
// filestore package.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

type Repository interface {
	// Create writes a new account. A duplicate username fails with
	// common.ErrUsernameTaken and leaves the store unchanged.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByUsername returns the account or common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// UpdatePassword replaces the credential hash of an existing account.
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
