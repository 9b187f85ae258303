package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/fintrack/internal/domain"
)

// UserUseCase provisions user rows from gateway-supplied identities. The
// gateway authenticates callers upstream; this side only has to make sure a
// row exists before accounts, transactions and budgets reference it.
type UserUseCase struct {
	userRepo UserRepository
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository) *UserUseCase {
	return &UserUseCase{userRepo: userRepo}
}

// EnsureUser makes sure a user row exists for the given identity, creating
// or refreshing it. Blank email and name never overwrite stored values.
func (uc *UserUseCase) EnsureUser(ctx context.Context, id, email, name string) error {
	now := time.Now().UTC()

	user := &domain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("upsert user %s: %w", id, err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
