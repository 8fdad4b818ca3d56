package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/queue"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
)

const gateModule = "Gate"

// TicketService issues tickets and runs gate validation.
//
// A ticket moves from issued to validated exactly once.  The checks run in
// a fixed order: unknown code, fraud block, duplicate scan.  A fraudulent
// ticket that was somehow validated still reports the fraud reason.
type TicketService struct {
	Tickets   repository.TicketRepository
	Scorer    scoring.FraudScorer
	Publisher ActivityPublisher
	Log       *zap.Logger
	Now       func() time.Time
}

// NewTicketService wires a TicketService with the wall clock.
func NewTicketService(tickets repository.TicketRepository, scorer scoring.FraudScorer, pub ActivityPublisher, log *zap.Logger) *TicketService {
	return &TicketService{Tickets: tickets, Scorer: scorer, Publisher: pub, Log: log, Now: time.Now}
}

// Issue scores t and inserts it.  Validation state from the caller is
// discarded; new tickets always start issued.
func (s *TicketService) Issue(ctx context.Context, t *model.Ticket) error {
	if t.TicketCode == "" {
		return fmt.Errorf("%w: ticket_code is required", ErrInvalidInput)
	}
	if t.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	t.FraudScore = s.Scorer.ScoreFraud(t.TicketCode)
	t.IsValidated = false
	t.EntryTime = nil
	return s.Tickets.Create(ctx, t)
}

// Validate scans code at the gate.  It returns the validated ticket or one
// of ErrTicketNotFound, ErrFraudRejected, ErrAlreadyValidated; any other
// error is a store failure.
func (s *TicketService) Validate(ctx context.Context, code string) (*model.Ticket, error) {
	t, err := s.Tickets.ValidateByCode(ctx, code, s.Now(), guardTicket)
	switch {
	case err == nil:
		s.publish(ctx, model.LevelInfo, fmt.Sprintf("Ticket %s validated", code))
		return t, nil
	case errors.Is(err, repository.ErrNotFound):
		s.publish(ctx, model.LevelWarning, fmt.Sprintf("Unknown ticket code %q scanned", code))
		return nil, ErrTicketNotFound
	case errors.Is(err, ErrFraudRejected):
		s.publish(ctx, model.LevelError, fmt.Sprintf("Ticket %s blocked: high fraud risk", code))
		return nil, ErrFraudRejected
	case errors.Is(err, ErrAlreadyValidated), errors.Is(err, repository.ErrConflict):
		s.publish(ctx, model.LevelWarning, fmt.Sprintf("Ticket %s scanned twice", code))
		return nil, ErrAlreadyValidated
	}
	return nil, err
}

func guardTicket(t *model.Ticket) error {
	if t.Fraudulent() {
		return ErrFraudRejected
	}
	if t.IsValidated {
		return ErrAlreadyValidated
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, level, msg string) {
	publishBestEffort(ctx, s.Publisher, s.Log, queue.ActivityEvent{
		Module:     gateModule,
		Level:      level,
		Message:    msg,
		OccurredAt: s.Now().UTC(),
	})
}
