// README: AI search quota; every natural-language search costs one monthly token.
package aiusage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
)

// Quota is the token ledger; *Store implements it.
type Quota interface {
	UseToken(ctx context.Context, uid string, month time.Time) error
	EnsureUser(ctx context.Context, uid string, month time.Time) error
	Remaining(ctx context.Context, uid string, month time.Time) (int, error)
	Refund(ctx context.Context, uid string, month time.Time) error
}

// refundTimeout bounds the refund that runs after the request context may
// already be done.
const refundTimeout = 2 * time.Second

// ErrAssistantUnavailable is returned when no AI backend is configured.
var ErrAssistantUnavailable = errors.New("ai assistant not configured")

// Service orchestrates AI token-usage logic.
type Service struct {
	quota     Quota
	assistant ai.SearchAssistant
	now       func() time.Time
}

// NewService creates a Service. assistant may be nil; Search then fails with
// ErrAssistantUnavailable without charging a token.
func NewService(quota Quota, assistant ai.SearchAssistant) *Service {
	return &Service{quota: quota, assistant: assistant, now: time.Now}
}

// UseToken deducts one token from the user's monthly allowance.
// If the user row does not exist yet it is initialised and the token is immediately consumed.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	return s.useToken(ctx, uid, s.now())
}

func (s *Service) useToken(ctx context.Context, uid string, month time.Time) error {
	err := s.quota.UseToken(ctx, uid, month)
	if !errors.Is(err, ErrInsufficientTokens) {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.quota.EnsureUser(ctx, uid, month); initErr != nil {
		return initErr
	}
	return s.quota.UseToken(ctx, uid, month)
}

func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.quota.Remaining(ctx, uid, s.now())
}

// Search charges one token and asks the assistant to turn message into
// filters. The token is taken before the call so concurrent searches cannot
// overdraw the quota, and given back when the assistant fails.
func (s *Service) Search(ctx context.Context, uid, message string, hints map[string]string) (*ai.SearchIntent, error) {
	if s.assistant == nil {
		return nil, ErrAssistantUnavailable
	}
	month := s.now()
	if err := s.useToken(ctx, uid, month); err != nil {
		return nil, err
	}
	if hints == nil {
		hints = map[string]string{}
	}
	if hints["current_date"] == "" {
		hints["current_date"] = month.UTC().Format("2006-01-02")
	}
	intent, err := s.assistant.ParseSearch(ctx, message, hints)
	if err != nil {
		s.refund(ctx, uid, month)
		return nil, err
	}
	return intent, nil
}

func (s *Service) refund(ctx context.Context, uid string, month time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()
	if err := s.quota.Refund(ctx, uid, month); err != nil {
		slog.WarnContext(ctx, "ai token refund failed", "uid", uid, "error", err)
	}
}
