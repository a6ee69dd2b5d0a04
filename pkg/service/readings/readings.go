// Package readings owns the reading lifecycle: creation with its credit
// deduction, the poll target, and history. Interpretation itself happens
// out-of-band in the interpreter worker.
package readings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/ledger"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/repository/store"
)

// Enqueuer hands a freshly created reading to the interpretation worker.
type Enqueuer interface {
	Enqueue(readingID string)
}

type Service struct {
	store *store.Store
	queue Enqueuer
}

func NewService(st *store.Store, queue Enqueuer) *Service {
	return &Service{store: st, queue: queue}
}

type CreateInput struct {
	Email      string
	Question   string
	Language   domain.Language
	Region     domain.Region
	Cards      []domain.DrawnCard
	ReferrerID string
}

type CreateResult struct {
	ReadingID string
	Status    domain.ReadingStatus
	UserID    string
	NewUser   bool
	Source    ledger.CreditSource
}

// Create validates the spread, finds or creates the querent, and commits
// reading, drawn cards and credit deduction as one unit. The interpretation
// job is enqueued only after the commit succeeds, so a rolled-back reading
// is never interpreted.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	newUser := false
	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.store.CreateUser(ctx, in.Email, in.Region, ledger.SignupFreeReadings)
		if err == nil {
			newUser = true
			s.recordReferral(ctx, in.ReferrerID, user.ID)
		}
	}
	if err != nil {
		return nil, err
	}

	reading, source, err := s.store.CreateReadingWithCredit(ctx, store.CreateReadingParams{
		UserID:   user.ID,
		Question: in.Question,
		Language: in.Language,
		Cards:    in.Cards,
		Now:      time.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.queue.Enqueue(reading.ID)

	return &CreateResult{
		ReadingID: reading.ID,
		Status:    reading.Status,
		UserID:    user.ID,
		NewUser:   newUser,
		Source:    source,
	}, nil
}

// recordReferral links a new user to their referrer. Failures are logged,
// not surfaced: a broken referral link must not block the reading.
func (s *Service) recordReferral(ctx context.Context, referrerID, newUserID string) {
	if referrerID == "" || referrerID == newUserID {
		return
	}
	if _, err := s.store.GetUser(ctx, referrerID); err != nil {
		return
	}
	if err := s.store.CreateReferral(ctx, referrerID, newUserID); err != nil {
		log.Printf("readings: recording referral for %s: %v", newUserID, err)
	}
}

func validate(in CreateInput) error {
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Question) == "" {
		return fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if in.Language != domain.LanguageEN && in.Language != domain.LanguageZH {
		return fmt.Errorf("%w: unknown language %q", domain.ErrInvalidInput, in.Language)
	}
	if len(in.Cards) != 3 {
		return fmt.Errorf("%w: a reading needs exactly 3 cards", domain.ErrInvalidInput)
	}
	seen := map[int]bool{}
	for _, c := range in.Cards {
		if c.Position < 1 || c.Position > 3 {
			return fmt.Errorf("%w: card position %d out of range", domain.ErrInvalidInput, c.Position)
		}
		if seen[c.Position] {
			return fmt.Errorf("%w: duplicate card position %d", domain.ErrInvalidInput, c.Position)
		}
		seen[c.Position] = true
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.ReadingWithCards, error) {
	return s.store.GetReading(ctx, id)
}

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// History returns one page of the user's readings, newest first.
func (s *Service) History(ctx context.Context, userID string, page, limit int) ([]domain.ReadingWithCards, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.store.ListReadingsByUser(ctx, userID, page, limit)
}
