package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfpassist/internal/agent"
	"rfpassist/internal/aggregator"
	"rfpassist/internal/answer"
	"rfpassist/internal/chunker"
	"rfpassist/internal/domain"
	"rfpassist/internal/embedding"
	"rfpassist/internal/embedding/tfidf"
	"rfpassist/internal/extractor/extractortest"
	"rfpassist/internal/feedback"
	"rfpassist/internal/index"
	"rfpassist/internal/llm"
	"rfpassist/internal/profile"
	"rfpassist/internal/proposal"
	"rfpassist/internal/qa"
	"rfpassist/internal/retriever"
	"rfpassist/internal/retry"
	"rfpassist/internal/summarizer"
)

const rfpLine = "Page limit: 10. Font: Times New Roman 12pt. Submit 3 copies."

// scriptedModel answers prompts with the first reply whose key the prompt contains.
type scriptedModel struct {
	mu      sync.Mutex
	replies [][2]string
	prompts []string
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) llm.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req.Prompt)
	for _, r := range m.replies {
		if strings.Contains(req.Prompt, r[0]) {
			return llm.Normalize(r[1])
		}
	}
	return llm.Normalize(answer.NotAvailable)
}

type fixture struct {
	svc      *RFPService
	model    *scriptedModel
	written  []proposal.Document
	feedback string
	dir      string
}

func newFixture(t *testing.T, replies ...[2]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{model: &scriptedModel{replies: replies}, dir: dir}

	space := embedding.Fitted(tfidf.Name, tfidf.Fitter{})
	indexDir := filepath.Join(dir, "faiss_index")
	store := index.NewStore(indexDir, space, nil)
	ret, err := retriever.New(store, 2, nil)
	require.NoError(t, err)
	qaSvc := qa.NewService(ret, answer.NewGenerator(f.model, answer.DefaultTemperature), 4, retry.Policy{MaxAttempts: 1}, nil)

	prof := &profile.Profile{}
	prof.Set("Company Legal Name", "Acme Staffing LLC")
	f.feedback = filepath.Join(dir, "logs", "feedback_log.jsonl")

	f.svc = NewRFPService(Deps{
		AnalyzerChunker:  chunker.NewRecursive(),
		IndexChunker:     chunker.NewRecursive(chunker.WithMaxSize(10000), chunker.WithOverlap(1000)),
		Builder:          index.NewBuilder(indexDir, space, retry.Policy{MaxAttempts: 1}, nil),
		Indexes:          store,
		Agents:           agent.NewDispatcher(f.model, agent.Options{CompanyProfile: prof.JSON()}),
		QA:               qaSvc,
		Aggregator:       aggregator.New(qaSvc, 0, nil),
		Feedback:         feedback.NewLogger(f.feedback),
		Summarizer:       summarizer.NewFrequencySummarizer(),
		PreviewSentences: 1,
		RiskProfile:      prof.JSON(),
		ProposalProfile:  prof,
		ProposalDir:      filepath.Join(dir, "out"),
		WriteProposal: func(doc proposal.Document, path string) error {
			f.written = append(f.written, doc)
			return os.WriteFile(path, []byte(doc.PlainText()), 0o644)
		},
		Now: func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))
	return f
}

func writeRFP(t *testing.T, dir string) string {
	return extractortest.WritePDF(t, dir, "City Staffing RFP.pdf", [][]string{
		{"Request for Proposal: Temporary Staffing Services"},
		{rfpLine},
	})
}

func TestAnalyzeChecklist(t *testing.T) {
	f := newFixture(t, [2]string{"Submit 3 copies", "- Page limit: 10 pages\n- Font: Times New Roman 12pt\n- Copies: 3"})
	path := writeRFP(t, f.dir)

	got, err := f.svc.Analyze(context.Background(), path, agent.Checklist)
	require.NoError(t, err)

	assert.Equal(t, agent.Checklist, got.Output.Agent)
	assert.False(t, got.Output.Empty)
	assert.Contains(t, got.Output.Text, "Copies: 3")
	require.Len(t, f.model.prompts, 1)
	assert.Contains(t, f.model.prompts[0], "Temporary Staffing Services")
	assert.Contains(t, f.model.prompts[0], "Submit 3 copies.")
}

func TestAnalyzeRejectsUnsupportedFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "rfp.txt")
	require.NoError(t, os.WriteFile(path, []byte(rfpLine), 0o644))

	_, err := f.svc.Analyze(context.Background(), path, agent.Summary)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Empty(t, f.model.prompts)
}

func TestIngestAskAndList(t *testing.T) {
	f := newFixture(t, [2]string{"Question: How many copies", "Submit 3 copies."})
	path := writeRFP(t, f.dir)
	ctx := context.Background()

	meta, err := f.svc.Ingest(ctx, []string{path})
	require.NoError(t, err)
	assert.Equal(t, "City_Staffing_RFP", meta.DocName)
	assert.True(t, strings.HasPrefix(meta.Folder, "City_Staffing_RFP_"))
	assert.NotEmpty(t, meta.Preview)

	docs, err := f.svc.Documents()
	require.NoError(t, err)
	assert.Equal(t, []index.Metadata{meta}, docs)

	out, err := f.svc.Ask(ctx, meta.Folder, "How many copies must be submitted?")
	require.NoError(t, err)
	assert.Equal(t, answer.Answered("Submit 3 copies."), out)
	assert.Contains(t, f.model.prompts[len(f.model.prompts)-1], rfpLine)

	out, err = f.svc.Ask(ctx, meta.Folder, "What is the budget?")
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestIngestErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, nil)
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = f.svc.Ingest(ctx, []string{filepath.Join(f.dir, "notes.txt")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = f.svc.Ask(ctx, "missing_abc123", "anything?")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestGenerateProposalUsesGatheredSections(t *testing.T) {
	f := newFixture(t, [2]string{"approach to solving", "Rapid staffing within 48 hours."})
	ctx := context.Background()
	meta, err := f.svc.Ingest(ctx, []string{writeRFP(t, f.dir)})
	require.NoError(t, err)

	path, err := f.svc.GenerateProposal(ctx, meta.Folder, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "out", DefaultProposalName), path)
	require.Len(t, f.written, 1)

	text := f.written[0].PlainText()
	assert.Contains(t, text, "Rapid staffing within 48 hours.")
	assert.Contains(t, text, "Acme Staffing LLC is pleased to submit this proposal")
	assert.Contains(t, text, "Submission Date: March 07, 2025")
	assert.FileExists(t, path)
}

func TestRecordFeedback(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.RecordFeedback(feedback.Entry{
		RFPFile: "rfp.pdf",
		Agent:   agent.Summary.Title(),
		Output:  "summary text",
		Rating:  feedback.Up,
	}))

	data, err := os.ReadFile(f.feedback)
	require.NoError(t, err)
	var line map[string]string
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "2025-03-07T12:00:00Z", line["timestamp"])
	assert.Equal(t, "Summary", line["agent"])
	assert.Equal(t, "up", line["rating"])
}

// stubAgents records how Analyze routes to the dispatcher.
type stubAgents struct {
	name  agent.Name
	extra map[string]string
}

func (s *stubAgents) Run(_ context.Context, name agent.Name, _ string, extra map[string]string) (agent.Output, error) {
	s.name, s.extra = name, extra
	return agent.Output{Agent: name, Text: "ok"}, nil
}

func (s *stubAgents) RunRequirements(context.Context, string) ([]agent.Requirement, agent.Output, error) {
	s.name = agent.Requirements
	return []agent.Requirement{{Type: agent.MustHave, Requirement: "Submit 3 copies"}}, agent.Output{Agent: agent.Requirements}, nil
}

func (s *stubAgents) RunVerdict(context.Context, string) (agent.EligibilityVerdict, agent.Output, error) {
	s.name = agent.Verdict
	return agent.EligibilityVerdict{}, agent.Output{Agent: agent.Verdict, Text: "Eligible, probably."}, domain.ErrInvalidOutput
}

func TestAnalyzeRouting(t *testing.T) {
	dir := t.TempDir()
	path := writeRFP(t, dir)
	stub := &stubAgents{}
	svc := NewRFPService(Deps{AnalyzerChunker: chunker.NewRecursive(), Agents: stub, RiskProfile: `{"a": "b"}`})
	ctx := context.Background()

	_, err := svc.Analyze(ctx, path, agent.Risk)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{agent.ExtraCompanyProfile: `{"a": "b"}`}, stub.extra)

	_, err = svc.Analyze(ctx, path, agent.Summary)
	require.NoError(t, err)
	assert.Nil(t, stub.extra)

	got, err := svc.Analyze(ctx, path, agent.Requirements)
	require.NoError(t, err)
	assert.Len(t, got.Requirements, 1)

	got, err = svc.Analyze(ctx, path, agent.Verdict)
	assert.ErrorIs(t, err, domain.ErrInvalidOutput)
	assert.Nil(t, got.Verdict)
	assert.Equal(t, "Eligible, probably.", got.Output.Text)
}
