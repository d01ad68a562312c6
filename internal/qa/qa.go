// Package qa answers questions about a processed document.
package qa

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"rfpassist/internal/answer"
	"rfpassist/internal/domain"
	"rfpassist/internal/logger"
	"rfpassist/internal/retriever"
	"rfpassist/internal/retry"
)

// Searcher is satisfied by *retriever.Retriever.
type Searcher interface {
	Search(ctx context.Context, folder, query string, k int) ([]domain.SearchResult, error)
}

// Answerer is satisfied by *answer.Generator.
type Answerer interface {
	Answer(ctx context.Context, question string, chunks []string) (answer.Outcome, error)
}

// Service retrieves the top chunks for a question and answers from them.
type Service struct {
	search Searcher
	answer Answerer
	topK   int
	policy retry.Policy
	log    *logrus.Entry
}

// NewService creates a question answering service.
func NewService(search Searcher, ans Answerer, topK int, policy retry.Policy, log *logrus.Entry) *Service {
	s := &Service{search: search, answer: ans, topK: topK, log: logger.OrDiscard(log)}
	policy.Classify = classify
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Warn("question answering failed, retrying")
	}
	s.policy = policy
	return s
}

// Ask answers question from the index stored for folder.
func (s *Service) Ask(ctx context.Context, folder, question string) (answer.Outcome, error) {
	var out answer.Outcome
	err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		results, err := s.search.Search(ctx, folder, question, s.topK)
		if err != nil {
			return err
		}
		out, err = s.answer.Answer(ctx, question, retriever.Texts(results))
		return err
	})
	if err != nil {
		return answer.Outcome{}, err
	}
	return out, nil
}

// classify stops on errors a retry cannot fix. Model outages were already
// retried inside the model client and surface here as ErrNoOutput.
func classify(err error) retry.Decision {
	switch {
	case errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrEmbedderMismatch),
		errors.Is(err, domain.ErrNoOutput),
		errors.Is(err, domain.ErrContentBlocked),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return retry.FailFast
	}
	return retry.Retry
}
