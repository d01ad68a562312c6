// Package service wires extraction, indexing, retrieval, the analysis agents
// and proposal generation behind one entry point used by the CLI and TUI.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"rfpassist/internal/agent"
	"rfpassist/internal/aggregator"
	"rfpassist/internal/answer"
	"rfpassist/internal/domain"
	"rfpassist/internal/extractor"
	"rfpassist/internal/feedback"
	"rfpassist/internal/index"
	"rfpassist/internal/logger"
	"rfpassist/internal/profile"
	"rfpassist/internal/proposal"
)

// DefaultProposalName is used when GenerateProposal gets no output name.
const DefaultProposalName = "generated_proposal.docx"

// ErrNoDocuments is returned when ingest is given nothing to read.
var ErrNoDocuments = errors.New("no documents to process")

// IndexBuilder is satisfied by *index.Builder.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []string, displayName string, opts ...index.BuildOption) (index.Metadata, error)
}

// Summarizer is satisfied by *summarizer.FrequencySummarizer.
type Summarizer interface {
	Summarize(text string, maxSentences int) string
}

// IndexLister is satisfied by *index.Store.
type IndexLister interface {
	List() ([]index.Metadata, error)
}

// Agents is satisfied by *agent.Dispatcher.
type Agents interface {
	Run(ctx context.Context, name agent.Name, document string, extra map[string]string) (agent.Output, error)
	RunRequirements(ctx context.Context, document string) ([]agent.Requirement, agent.Output, error)
	RunVerdict(ctx context.Context, document string) (agent.EligibilityVerdict, agent.Output, error)
}

// Asker is satisfied by *qa.Service.
type Asker interface {
	Ask(ctx context.Context, folder, question string) (answer.Outcome, error)
}

// Gatherer is satisfied by *aggregator.Aggregator.
type Gatherer interface {
	Gather(ctx context.Context, folder string) aggregator.Content
}

// FeedbackLog is satisfied by *feedback.Logger.
type FeedbackLog interface {
	Log(e feedback.Entry) error
}

// Deps are the collaborators of an RFPService.
type Deps struct {
	AnalyzerChunker domain.Chunker
	IndexChunker    domain.Chunker
	Builder         IndexBuilder
	Indexes         IndexLister
	Agents          Agents
	QA              Asker
	Aggregator      Gatherer
	Feedback        FeedbackLog
	// Summarizer, when set, stores a short preview with each new index.
	Summarizer       Summarizer
	PreviewSentences int
	// RiskProfile is the company profile JSON handed to the risk agent.
	RiskProfile string
	// ProposalProfile fills the generated proposal; nil means boilerplate only.
	ProposalProfile *profile.Profile
	// ProposalDir is where relative proposal names are written.
	ProposalDir string
	// WriteProposal renders a proposal; defaults to proposal.WriteDOCX.
	WriteProposal func(doc proposal.Document, path string) error
	Now           func() time.Time
	Log           *logrus.Entry
}

// RFPService is the application entry point.
type RFPService struct {
	deps Deps
	log  *logrus.Entry
}

// NewRFPService creates the service.
func NewRFPService(deps Deps) *RFPService {
	if deps.WriteProposal == nil {
		deps.WriteProposal = proposal.WriteDOCX
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &RFPService{deps: deps, log: logger.OrDiscard(deps.Log)}
}

// Analysis is the result of one agent run. Requirements and Verdict are set
// for the agents that return structured output.
type Analysis struct {
	Output       agent.Output
	Requirements []agent.Requirement
	Verdict      *agent.EligibilityVerdict
}

// Analyze extracts path, rebuilds the full text from analyzer chunks and runs
// one agent over it.
func (s *RFPService) Analyze(ctx context.Context, path string, name agent.Name) (Analysis, error) {
	text, err := extractor.Extract(path)
	if err != nil {
		return Analysis{}, err
	}
	doc := agent.JoinChunks(s.deps.AnalyzerChunker.Chunk(text))
	log := s.log.WithFields(logrus.Fields{"agent": name, "file": filepath.Base(path)})
	log.WithField("chars", len(doc)).Info("analyzing document")

	switch name {
	case agent.Requirements:
		reqs, out, err := s.deps.Agents.RunRequirements(ctx, doc)
		return Analysis{Output: out, Requirements: reqs}, err
	case agent.Verdict:
		v, out, err := s.deps.Agents.RunVerdict(ctx, doc)
		if err != nil {
			return Analysis{Output: out}, err
		}
		return Analysis{Output: out, Verdict: &v}, nil
	}
	var extra map[string]string
	if name == agent.Risk && s.deps.RiskProfile != "" {
		extra = map[string]string{agent.ExtraCompanyProfile: s.deps.RiskProfile}
	}
	out, err := s.deps.Agents.Run(ctx, name, doc, extra)
	return Analysis{Output: out}, err
}

// Ingest extracts and concatenates the given files, chunks the text and
// builds a new index named after the first file. Glob patterns are expanded.
func (s *RFPService) Ingest(ctx context.Context, paths []string) (index.Metadata, error) {
	files := expand(paths)
	if len(files) == 0 {
		return index.Metadata{}, ErrNoDocuments
	}
	text, err := extractor.ExtractAll(files)
	if err != nil {
		return index.Metadata{}, err
	}
	chunks := s.deps.IndexChunker.Chunk(text)
	if len(chunks) == 0 {
		return index.Metadata{}, fmt.Errorf("%w: no extractable text in %s", ErrNoDocuments, filepath.Base(files[0]))
	}
	var opts []index.BuildOption
	if s.deps.Summarizer != nil {
		opts = append(opts, index.WithPreview(s.deps.Summarizer.Summarize(text, s.deps.PreviewSentences)))
	}
	meta, err := s.deps.Builder.Build(ctx, chunks, extractor.DisplayName(files[0]), opts...)
	if err != nil {
		return index.Metadata{}, err
	}
	s.log.WithFields(logrus.Fields{"folder_id": meta.Folder, "files": len(files), "chunks": len(chunks)}).Info("document processed")
	return meta, nil
}

func expand(paths []string) []string {
	var out []string
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		out = append(out, matches...)
	}
	return out
}

// Documents lists the processed documents.
func (s *RFPService) Documents() ([]index.Metadata, error) {
	return s.deps.Indexes.List()
}

// Ask answers a question against a processed document.
func (s *RFPService) Ask(ctx context.Context, folder, question string) (answer.Outcome, error) {
	return s.deps.QA.Ask(ctx, folder, question)
}

// Gather collects the proposal sections available in a processed document.
func (s *RFPService) Gather(ctx context.Context, folder string) aggregator.Content {
	return s.deps.Aggregator.Gather(ctx, folder)
}

// GenerateProposal gathers content from folder and writes the proposal. A
// relative out is placed in the proposal directory. It returns the path written.
func (s *RFPService) GenerateProposal(ctx context.Context, folder, out string) (string, error) {
	if out == "" {
		out = DefaultProposalName
	}
	if !filepath.IsAbs(out) && s.deps.ProposalDir != "" {
		out = filepath.Join(s.deps.ProposalDir, out)
	}
	content := s.Gather(ctx, folder)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc := proposal.Build(s.deps.ProposalProfile, content, s.deps.Now())
	if err := s.deps.WriteProposal(doc, out); err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"folder_id": folder, "sections": len(content), "path": out}).Info("proposal generated")
	return out, nil
}

// RecordFeedback appends a rating of an agent output to the audit log.
func (s *RFPService) RecordFeedback(e feedback.Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.deps.Now()
	}
	return s.deps.Feedback.Log(e)
}
