package person

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/persons-service/internal/retry"
)

const (
	maxSaveAttempts = 3
	saveRetryDelay  = 1000 * time.Millisecond
)

// Service orchestrates person storage and the version-checked add operations.
type Service struct {
	repo   Repository
	logger *zap.SugaredLogger
	policy retry.Policy
}

func NewService(repo Repository, logger *zap.SugaredLogger) *Service {
	s := &Service{repo: repo, logger: logger}
	s.policy = retry.Policy{
		MaxAttempts: maxSaveAttempts,
		Delay:       saveRetryDelay,
		Retryable:   func(err error) bool { return errors.Is(err, ErrConflict) },
		OnRetry: func(attempt int, err error) {
			s.logger.Warnw("person save conflicted, retrying", "attempt", attempt, "err", err)
		},
	}
	return s
}

// List returns the persons matching the optional criteria.
func (s *Service) List(ctx context.Context, name, surname, sex *string) ([]Person, error) {
	f, err := NewFilter(name, surname, sex)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Person, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Person) (Person, error) {
	return s.repo.Create(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AddEmailAddresses unions emails into the person's email set.
func (s *Service) AddEmailAddresses(ctx context.Context, id int64, emails []string) (Person, error) {
	return s.update(ctx, id, func(p *Person) {
		p.EmailAddresses = mergeSet(p.EmailAddresses, emails...)
	})
}

// AddPhoneNumbers unions phones into the person's phone set.
func (s *Service) AddPhoneNumbers(ctx context.Context, id int64, phones []string) (Person, error) {
	return s.update(ctx, id, func(p *Person) {
		p.PhoneNumbers = mergeSet(p.PhoneNumbers, phones...)
	})
}

// update runs load, mutate and save, repeating the whole sequence while the save
// reports ErrConflict. ErrNotFound from the load is returned at once.
func (s *Service) update(ctx context.Context, id int64, mutate func(*Person)) (Person, error) {
	var saved Person
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		mutate(&p)
		saved, err = s.repo.Save(ctx, p)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Warnw("person save conflicted, giving up", "id", id, "attempts", s.policy.MaxAttempts)
		}
		return Person{}, err
	}
	return saved, nil
}
