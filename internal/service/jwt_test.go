package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewTokenService("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	tok, err := s.Generate(777)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	id, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != 777 {
		t.Errorf("user id = %d, want 777", id)
	}
}

func TestTokenRejections(t *testing.T) {
	s, _ := NewTokenService("secret", time.Hour)
	other, _ := NewTokenService("other", time.Hour)

	foreign, _ := other.Generate(1)
	if _, err := s.Parse(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature: err = %v", err)
	}

	base := time.Now()
	s.now = func() time.Time { return base.Add(-2 * time.Hour) }
	old, _ := s.Generate(1)
	s.now = func() time.Time { return base }
	if _, err := s.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v", err)
	}

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": base.Add(time.Hour).Unix()})
	raw, _ := noUser.SignedString([]byte("secret"))
	if _, err := s.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing user_id: err = %v", err)
	}

	if _, err := s.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestTokenServiceNeedsSecret(t *testing.T) {
	if _, err := NewTokenService("", 0); !errors.Is(err, ErrNoSecret) {
		t.Errorf("err = %v, want ErrNoSecret", err)
	}
}
