// Package aggregator gathers proposal content from a processed RFP by
// asking a fixed battery of questions.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rfpassist/internal/answer"
	"rfpassist/internal/domain"
	"rfpassist/internal/logger"
)

// Section keys, in the order they are gathered.
const (
	ExecutiveSummary = "executive_summary"
	Approach         = "approach"
	Qualifications   = "qualifications"
	Implementation   = "implementation"
	QualityControl   = "quality_control"
)

// Section is one named question.
type Section struct {
	Key      string
	Question string
}

// Sections returns the fixed question battery.
func Sections() []Section {
	return []Section{
		{ExecutiveSummary, "What are the key highlights or executive summary of this proposal?"},
		{Approach, "What is the company's approach to solving the problem or delivering services?"},
		{Qualifications, "What are the company's qualifications and past performance?"},
		{Implementation, "What is the company's implementation plan?"},
		{QualityControl, "What quality control measures does the company have?"},
	}
}

// Content maps section keys to answers. Missing keys mean "use boilerplate".
type Content map[string]string

// Get returns the answer for key, or fallback when absent.
func (c Content) Get(key, fallback string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Asker is satisfied by *qa.Service.
type Asker interface {
	Ask(ctx context.Context, folder, question string) (answer.Outcome, error)
}

// Aggregator runs every section question against one folder.
type Aggregator struct {
	asker   Asker
	timeout time.Duration
	log     *logrus.Entry
}

// New creates an aggregator. A positive timeout bounds each section.
func New(asker Asker, timeout time.Duration, log *logrus.Entry) *Aggregator {
	return &Aggregator{asker: asker, timeout: timeout, log: logger.OrDiscard(log)}
}

// Gather asks every section question. Answers the context could not
// support are left out; failed sections are logged and skipped, so Gather
// always returns a (possibly empty) map.
func (a *Aggregator) Gather(ctx context.Context, folder string) Content {
	content := Content{}
	for _, s := range Sections() {
		out, err := a.ask(ctx, folder, s)
		log := a.log.WithFields(logrus.Fields{"folder_id": folder, "section": s.Key})
		if err != nil {
			log.WithError(fmt.Errorf("%w: %w", domain.ErrSectionRetrieval, err)).Warn("skipping section")
			continue
		}
		if !out.Found {
			log.Info("section not covered by document")
			continue
		}
		content[s.Key] = out.Text
	}
	if len(content) == 0 {
		a.log.WithField("folder_id", folder).Warn("no content gathered, proposal will use boilerplate")
	}
	return content
}

func (a *Aggregator) ask(ctx context.Context, folder string, s Section) (answer.Outcome, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.asker.Ask(ctx, folder, s.Question)
}
