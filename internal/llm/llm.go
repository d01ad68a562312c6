// Package llm is the resilient boundary around the generative model. Every
// provider response is normalised into a Result before any other component
// sees it, and transient failures are absorbed by a retry policy.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"rfpassist/internal/domain"
	"rfpassist/internal/logger"
	"rfpassist/internal/retry"
)

// Request is one completion request.
type Request struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
}

// Result is the canonical model output. Empty means no usable text was
// produced; Blocked additionally marks a provider policy rejection.
type Result struct {
	Text    string
	Blocked bool
	Empty   bool
}

// Normalize trims text and derives Empty.
func Normalize(text string) Result {
	text = strings.TrimSpace(text)
	return Result{Text: text, Empty: text == ""}
}

// BlockedResult is returned for policy rejections.
func BlockedResult() Result { return Result{Blocked: true, Empty: true} }

// Provider performs a single model round trip. Policy rejections are
// reported either as a Blocked result or as an error wrapping
// domain.ErrContentBlocked; any other error is treated as transient.
type Provider interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Options configures a Client.
type Options struct {
	Policy retry.Policy
	// RequestsPerMinute paces provider calls; zero disables pacing.
	RequestsPerMinute int
	// Timeout bounds one Complete call including its retries; zero disables it.
	Timeout time.Duration
	Log     *logrus.Entry
}

// Client calls a Provider with pacing, an overall timeout and retries.
type Client struct {
	provider Provider
	policy   retry.Policy
	limiter  *rate.Limiter
	timeout  time.Duration
	log      *logrus.Entry
}

// NewClient wraps provider.
func NewClient(provider Provider, opts Options) *Client {
	c := &Client{
		provider: provider,
		policy:   opts.Policy,
		timeout:  opts.Timeout,
		log:      logger.OrDiscard(opts.Log),
	}
	if worst := opts.Policy.Worst(); opts.Timeout > 0 && worst >= opts.Timeout {
		c.log.WithFields(logrus.Fields{"retry_sleep": worst, "timeout": opts.Timeout}).
			Warn("call timeout is shorter than the retry schedule, later attempts will be cut off")
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// Complete returns the model's answer to req. It never fails: blocked
// prompts and exhausted retries come back as an empty Result and are logged.
func (c *Client) Complete(ctx context.Context, req Request) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	policy := c.policy
	policy.Classify = func(err error) retry.Decision {
		if errors.Is(err, domain.ErrContentBlocked) || ctx.Err() != nil {
			return retry.FailFast
		}
		return retry.Retry
	}
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Warn("model call failed, retrying")
	}

	var out Result
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		res, err := c.provider.Generate(ctx, req)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrContentBlocked):
		out = BlockedResult()
	case retry.IsExhausted(err):
		c.log.WithError(err).Error("model call exhausted retries")
		return Result{Empty: true}
	default:
		c.log.WithError(err).Error("model call abandoned")
		return Result{Empty: true}
	}
	if out.Blocked {
		out.Empty = true
		out.Text = ""
		c.log.Warn("model output blocked by provider policy")
	} else if out.Empty {
		c.log.Warn("model returned no candidates")
	}
	return out
}
