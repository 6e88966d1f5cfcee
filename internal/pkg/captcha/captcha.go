// Package captcha issues short-lived challenge codes and verifies answers
// against an expiring key-value store.
package captcha

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// ErrNotFound is returned by a Store for unknown or expired ids
var ErrNotFound = errors.New("captcha not found")

// alphabet leaves out characters that are easy to confuse (0/O, 1/I/L)
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Store keeps challenge answers until they expire
type Store interface {
	Set(ctx context.Context, id, answer string, ttl time.Duration) error
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// Challenge is what the client needs to render and answer a captcha
type Challenge struct {
	ID        string `json:"captchaId"`
	Text      string `json:"challenge"`
	ExpiresIn int    `json:"expiresIn"`
}

// Service generates and verifies captchas
type Service struct {
	store  Store
	ttl    time.Duration
	length int
	random io.Reader
}

// NewService creates a new captcha Service
func NewService(store Store, ttl time.Duration, length int) *Service {
	return &Service{
		store:  store,
		ttl:    ttl,
		length: length,
		random: rand.Reader,
	}
}

// Generate creates and stores a new challenge
func (s *Service) Generate(ctx context.Context) (*Challenge, error) {
	text, err := s.randomText()
	if err != nil {
		return nil, fmt.Errorf("failed to generate captcha text: %w", err)
	}

	id := uuid.NewString()
	if err := s.store.Set(ctx, id, text, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store captcha: %w", err)
	}

	return &Challenge{ID: id, Text: text, ExpiresIn: int(s.ttl.Seconds())}, nil
}

// Verify checks an answer case-insensitively. A correct answer consumes the
// challenge so it cannot be replayed.
func (s *Service) Verify(ctx context.Context, id, answer string) error {
	id = strings.TrimSpace(id)
	answer = strings.TrimSpace(answer)
	if id == "" || answer == "" {
		return apperrors.ErrCaptchaRequired
	}

	stored, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.ErrCaptchaInvalid
		}
		return fmt.Errorf("failed to read captcha: %w", err)
	}

	if !strings.EqualFold(stored, answer) {
		return apperrors.ErrCaptchaInvalid
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to consume captcha: %w", err)
	}
	return nil
}

func (s *Service) randomText() (string, error) {
	buf := make([]byte, s.length)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
