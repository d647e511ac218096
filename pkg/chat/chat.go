// Package chat sends free-text questions to the reporting endpoint and keeps
// the conversation history.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/models"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("empty message")

// Reporter answers a question. backend.Client implements it.
type Reporter interface {
	Report(ctx context.Context, question string) (string, error)
}

// History stores exchanges. session.Store implements it.
type History interface {
	AppendChat(ctx context.Context, ex models.ChatExchange) error
	ChatHistory(ctx context.Context, limit int) ([]models.ChatExchange, error)
	ClearChat(ctx context.Context) error
}

// Service is the reporting chat.
type Service struct {
	reporter Reporter
	history  History
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a chat Service.
func New(reporter Reporter, history History, log zerolog.Logger) *Service {
	return &Service{
		reporter: reporter,
		history:  history,
		log:      log.With().Str("component", "chat").Logger(),
		now:      time.Now,
	}
}

// Send asks question and records the exchange. A failed report is recorded
// too, and the error is returned alongside the stored exchange.
func (s *Service) Send(ctx context.Context, question string) (models.ChatExchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatExchange{}, ErrEmptyMessage
	}

	ex := models.ChatExchange{
		ID:        uuid.NewString(),
		Question:  question,
		CreatedAt: s.now().UTC(),
	}

	answer, reportErr := s.reporter.Report(ctx, question)
	if reportErr != nil {
		ex.Error = reportErr.Error()
		s.log.Warn().Err(reportErr).Msg("report failed")
	} else {
		ex.Answer = answer
	}

	// A cancelled caller still gets the exchange stored.
	if err := s.history.AppendChat(context.WithoutCancel(ctx), ex); err != nil {
		return ex, errors.Join(reportErr, err)
	}
	return ex, reportErr
}

// History returns up to limit latest exchanges, oldest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.ChatExchange, error) {
	return s.history.ChatHistory(ctx, limit)
}

// Clear deletes the whole conversation.
func (s *Service) Clear(ctx context.Context) error {
	return s.history.ClearChat(ctx)
}
