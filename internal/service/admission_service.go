package service

import (
	"context"
	"time"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/internal/delivery/kafka/producer"
	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/internal/notification"
	repository "github.com/devfong/cinema-gate/internal/repository/redis"
	"github.com/devfong/cinema-gate/pkg/logger"
)

type AdmissionService interface {
	Enter(ctx context.Context, movieID, requestID string) (*models.EnterResult, error)
	Leave(ctx context.Context, movieID, requestID string) error
	Status(ctx context.Context, movieID, requestID string) (*models.StatusResult, error)
	CompleteAdmission(ctx context.Context, movieID, requestID string) error

	PromoteWaiting(ctx context.Context, movieID string, batchCeiling int64) (int64, error)
	ExpireStale(ctx context.Context, movieID string) (int64, error)
	QueueStats(ctx context.Context, movieID string) (*models.QueueStats, error)
	TrackedMovies(ctx context.Context) ([]string, error)

	SystemConfig(ctx context.Context) CapacityInfo
}

type admissionService struct {
	repo     repository.AdmissionRepository
	capacity *CapacityCalculator
	tokens   *TokenIssuer
	pub      notification.Publisher
	events   producer.EventProducer
	reg      *metrics.Registry
	cfg      config.AdmissionConfig
	l        logger.Logger
}

func NewAdmissionService(
	repo repository.AdmissionRepository,
	capacity *CapacityCalculator,
	tokens *TokenIssuer,
	pub notification.Publisher,
	events producer.EventProducer,
	reg *metrics.Registry,
	cfg config.AdmissionConfig,
	l logger.Logger,
) AdmissionService {
	return &admissionService{
		repo:     repo,
		capacity: capacity,
		tokens:   tokens,
		pub:      pub,
		events:   events,
		reg:      reg,
		cfg:      cfg,
		l:        l,
	}
}

func (s *admissionService) Enter(ctx context.Context, movieID, requestID string) (*models.EnterResult, error) {
	if movieID == "" {
		return nil, ErrMissingMovieID
	}
	if requestID == "" {
		return nil, ErrMissingRequestID
	}

	maxSessions := s.capacity.MaxActiveSessions(ctx)

	res, err := s.repo.Enter(ctx, movieID, requestID, maxSessions)
	if err != nil {
		return nil, err
	}

	if res.Status.Admitted() {
		token, err := s.tokens.Issue(movieID, requestID)
		if err != nil {
			s.l.Errorf(ctx, "admissionService.Enter: issue token: %v", err)
			return nil, err
		}
		res.Token = token

		if res.Status == models.EnterStatusAdmitted {
			s.reg.AddAdmitted(1)
			s.events.Publish(ctx, producer.TopicAdmissionGranted, movieID, producer.AdmissionGrantedEvent{
				MovieID:   movieID,
				RequestID: requestID,
				Source:    "direct",
				Token:     token,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}

	s.l.Infof(ctx, "Enter movie=%s request=%s status=%s", movieID, requestID, res.Status)

	return res, nil
}

// Leave is idempotent: leaving a queue you are not in succeeds.
func (s *admissionService) Leave(ctx context.Context, movieID, requestID string) error {
	if movieID == "" {
		return ErrMissingMovieID
	}
	if requestID == "" {
		return ErrMissingRequestID
	}

	if err := s.repo.Leave(ctx, movieID, requestID); err != nil {
		return err
	}

	s.events.Publish(ctx, producer.TopicQueueLeft, movieID, producer.QueueLeftEvent{
		MovieID:   movieID,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	})

	return nil
}

func (s *admissionService) Status(ctx context.Context, movieID, requestID string) (*models.StatusResult, error) {
	if movieID == "" {
		return nil, ErrMissingMovieID
	}
	if requestID == "" {
		return nil, ErrMissingRequestID
	}

	active, err := s.repo.IsActive(ctx, movieID, requestID)
	if err != nil {
		return nil, err
	}
	if active {
		return &models.StatusResult{
			Status: models.UserStatusActive,
			Action: models.ActionRedirectToSeats,
		}, nil
	}

	rank, err := s.repo.WaitingRank(ctx, movieID, requestID)
	if err != nil {
		return nil, err
	}
	if rank > 0 {
		total, err := s.repo.WaitingCount(ctx, movieID)
		if err != nil {
			return nil, err
		}
		return &models.StatusResult{
			Status:       models.UserStatusWaiting,
			Rank:         rank,
			TotalWaiting: total,
		}, nil
	}

	return &models.StatusResult{
		Status: models.UserStatusNotFound,
		Action: models.ActionRedirectToMovies,
	}, nil
}

// CompleteAdmission releases an active slot without booking, e.g. when
// the client abandons seat selection. Like Leave, removing an absent
// member is a successful no-op.
func (s *admissionService) CompleteAdmission(ctx context.Context, movieID, requestID string) error {
	if movieID == "" {
		return ErrMissingMovieID
	}
	if requestID == "" {
		return ErrMissingRequestID
	}

	removed, err := s.repo.RemoveFromActive(ctx, movieID, requestID)
	if err != nil {
		return err
	}
	if removed {
		s.l.Infof(ctx, "Released active slot movie=%s request=%s", movieID, requestID)
	}

	return nil
}

// PromoteWaiting moves up to batchCeiling waiters into free active
// slots and notifies each one with a fresh admission token.
func (s *admissionService) PromoteWaiting(ctx context.Context, movieID string, batchCeiling int64) (int64, error) {
	maxSessions := s.capacity.MaxActiveSessions(ctx)

	activeCount, err := s.repo.ActiveCount(ctx, movieID)
	if err != nil {
		return 0, err
	}

	free := maxSessions - activeCount
	if free <= 0 {
		return 0, nil
	}
	if free > batchCeiling {
		free = batchCeiling
	}

	admitted, err := s.repo.Promote(ctx, movieID, free)
	if err != nil {
		return 0, err
	}

	for _, requestID := range admitted {
		token, err := s.tokens.Issue(movieID, requestID)
		if err != nil {
			s.l.Errorf(ctx, "admissionService.PromoteWaiting: issue token for %s: %v", requestID, err)
			continue
		}
		if err := s.pub.PublishAdmission(ctx, movieID, requestID, token); err != nil {
			s.l.Errorf(ctx, "admissionService.PromoteWaiting: notify %s: %v", requestID, err)
		}
		s.events.Publish(ctx, producer.TopicAdmissionGranted, movieID, producer.AdmissionGrantedEvent{
			MovieID:   movieID,
			RequestID: requestID,
			Source:    "promotion",
			Token:     token,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	if n := int64(len(admitted)); n > 0 {
		s.reg.AddAdmitted(n)
		return n, nil
	}

	return 0, nil
}

// ExpireStale evicts active members older than the session timeout and
// notifies each evicted participant. The scan and the removal are two
// steps; a participant can complete a booking between them and still
// receive a timeout, which the booking path tolerates.
func (s *admissionService) ExpireStale(ctx context.Context, movieID string) (int64, error) {
	expired, err := s.repo.FindExpiredActive(ctx, movieID, s.cfg.SessionTimeout)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.repo.RemoveActiveMembers(ctx, movieID, expired); err != nil {
		return 0, err
	}

	for _, requestID := range expired {
		if err := s.pub.PublishTimeout(ctx, movieID, requestID); err != nil {
			s.l.Errorf(ctx, "admissionService.ExpireStale: notify %s: %v", requestID, err)
		}
	}

	n := int64(len(expired))
	s.reg.AddTimedOut(n)
	s.l.Infof(ctx, "Expired %d stale sessions for movie %s", n, movieID)

	return n, nil
}

func (s *admissionService) QueueStats(ctx context.Context, movieID string) (*models.QueueStats, error) {
	waiting, err := s.repo.WaitingCount(ctx, movieID)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.ActiveCount(ctx, movieID)
	if err != nil {
		return nil, err
	}
	processed, err := s.repo.ProcessedCount(ctx, movieID)
	if err != nil {
		return nil, err
	}

	s.reg.SetQueueGauges(movieID, waiting, active)

	return &models.QueueStats{
		MovieID:        movieID,
		WaitingCount:   waiting,
		ActiveCount:    active,
		ProcessedCount: processed,
	}, nil
}

func (s *admissionService) TrackedMovies(ctx context.Context) ([]string, error) {
	return s.repo.TrackedMovies(ctx)
}

func (s *admissionService) SystemConfig(ctx context.Context) CapacityInfo {
	return s.capacity.Info(ctx)
}
