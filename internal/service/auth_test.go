package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	user, err := svc.Register(context.Background(), "User@Example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("email not lowercased: %q", user.Email)
	}
	if user.PasswordHash == "hunter2secret" {
		t.Error("password stored in plain text")
	}

	if _, err := svc.Register(context.Background(), "user@example.com", "other-password"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register err = %v, want ErrEmailTaken", err)
	}

	token, err := svc.Login(context.Background(), "user@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token did not parse: %v", err)
	}
	if claims.Subject != "1" {
		t.Errorf("token subject = %q, want 1", claims.Subject)
	}

	if _, err := svc.Login(context.Background(), "user@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	if _, err := svc.Register(context.Background(), "user@example.com", "original-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resetToken, err := svc.GeneratePasswordResetToken(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("GeneratePasswordResetToken: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), resetToken, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), "user@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "user@example.com", "original-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted")
	}

	// a login token must not work as a reset token
	loginToken, err := svc.Login(context.Background(), "user@example.com", "brand-new-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), loginToken, "sneaky-pass"); err == nil {
		t.Error("login token accepted as reset token")
	}
}
