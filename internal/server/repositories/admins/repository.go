// Package admins stores operator accounts.
package admins

import (
	"context"

	"github.com/dmitrijs2005/studentvault/internal/server/models"
)

type Repository interface {
	// Create inserts admin and fills in its ID. A taken email yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	// GetByEmail yields common.ErrorNotFound when no admin has email.
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}
