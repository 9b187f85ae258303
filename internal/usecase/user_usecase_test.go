package usecase_test

import (
	"context"
	"testing"

	"github.com/fintrack/fintrack/internal/usecase"
	"github.com/fintrack/fintrack/internal/usecase/mocks"
)

func TestUserUseCase_EnsureUser_CreatesRow(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	uc := usecase.NewUserUseCase(userRepo)

	if err := uc.EnsureUser(context.Background(), "user-1", "user@example.com", "Alex"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "user@example.com" || user.Name != "Alex" {
		t.Errorf("expected profile stored, got %q %q", user.Email, user.Name)
	}
}

func TestUserUseCase_EnsureUser_BlankProfileGetsPlaceholder(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	uc := usecase.NewUserUseCase(userRepo)

	if err := uc.EnsureUser(context.Background(), "user-1", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "user-1@unresolved.invalid" {
		t.Errorf("expected placeholder email, got %q", user.Email)
	}
}

func TestUserUseCase_EnsureUser_BlankFieldsKeepStoredValues(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	uc := usecase.NewUserUseCase(userRepo)

	if err := uc.EnsureUser(context.Background(), "user-1", "user@example.com", "Alex"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Later request without profile headers: the stored profile survives.
	if err := uc.EnsureUser(context.Background(), "user-1", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "user@example.com" || user.Name != "Alex" {
		t.Errorf("expected stored profile kept, got %q %q", user.Email, user.Name)
	}
}

func TestUserUseCase_EnsureUser_RefreshesProfile(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	uc := usecase.NewUserUseCase(userRepo)

	if err := uc.EnsureUser(context.Background(), "user-1", "old@example.com", "Alex"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := uc.EnsureUser(context.Background(), "user-1", "new@example.com", "Alexandra"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "new@example.com" || user.Name != "Alexandra" {
		t.Errorf("expected refreshed profile, got %q %q", user.Email, user.Name)
	}
}
