package service

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAdminAndAuthenticate(t *testing.T) {
	svc := NewUserService(setupServiceTestDB(t))
	ctx := context.Background()

	created, err := svc.CreateAdmin(ctx, " Owner@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("CreateAdmin returned error: %v", err)
	}
	if created.Email != "owner@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.Password == "correct-horse" {
		t.Fatal("expected password to be hashed")
	}

	user, err := svc.Authenticate(ctx, "OWNER@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}

	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if loaded.Email != created.Email {
		t.Fatalf("expected %s, got %s", created.Email, loaded.Email)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewUserService(setupServiceTestDB(t))
	ctx := context.Background()

	if _, err := svc.CreateAdmin(ctx, "owner@example.com", "correct-horse"); err != nil {
		t.Fatalf("CreateAdmin returned error: %v", err)
	}

	cases := map[string][2]string{
		"wrong password": {"owner@example.com", "battery-staple"},
		"unknown email":  {"nobody@example.com", "correct-horse"},
		"empty":          {"", ""},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestCreateAdminRejectsDuplicatesAndWeakInput(t *testing.T) {
	svc := NewUserService(setupServiceTestDB(t))
	ctx := context.Background()

	if _, err := svc.CreateAdmin(ctx, "owner@example.com", "correct-horse"); err != nil {
		t.Fatalf("CreateAdmin returned error: %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "OWNER@example.com", "another-pass"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "", "correct-horse"); !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "short@example.com", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := svc.GetByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
