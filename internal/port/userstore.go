package port

import (
	"context"

	"github.com/civicyouth/portal/internal/domain"
)

type UserStore interface {
	HasUser(ctx context.Context) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, email, passwordHash string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
