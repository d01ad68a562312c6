package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"rfpassist/internal/agent"
	"rfpassist/internal/aggregator"
	"rfpassist/internal/answer"
	"rfpassist/internal/chunker"
	"rfpassist/internal/config"
	"rfpassist/internal/embedding"
	embgemini "rfpassist/internal/embedding/gemini"
	"rfpassist/internal/embedding/tfidf"
	"rfpassist/internal/feedback"
	"rfpassist/internal/index"
	"rfpassist/internal/llm"
	llmgemini "rfpassist/internal/llm/gemini"
	"rfpassist/internal/logger"
	"rfpassist/internal/profile"
	"rfpassist/internal/proposal"
	"rfpassist/internal/qa"
	"rfpassist/internal/retriever"
	"rfpassist/internal/retry"
	"rfpassist/internal/service"
	"rfpassist/internal/summarizer"
)

// wire assembles the service from configuration. The returned closer
// releases the model client.
func wire(ctx context.Context, cfg *config.AppConfig, needsModel bool) (*service.RFPService, func() error, error) {
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}
	log := logger.New("main")

	var (
		client *genai.Client
		closer func() error
	)
	key := cfg.Gemini.APIKey()
	switch {
	case key != "":
		c, err := genai.NewClient(ctx, option.WithAPIKey(key))
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini client: %w", err)
		}
		client, closer = c, c.Close
	case needsModel:
		return nil, nil, fmt.Errorf("%s is not set", cfg.Gemini.APIKeyEnv)
	}

	space, err := embeddingSpace(cfg, client)
	if err != nil {
		return nil, closer, err
	}

	model := llm.NewClient(llmgemini.New(client, cfg.Gemini.Model), llm.Options{
		Policy:            policy(cfg.ModelRetry),
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		Timeout:           cfg.CallTimeout(),
		Log:               logger.New("llm"),
	})

	store := index.NewStore(cfg.Index.Dir, space, logger.New("index"))
	builder := index.NewBuilder(cfg.Index.Dir, space, policy(cfg.Index.BuildRetry), logger.New("index"))
	ret, err := retriever.New(store, cfg.Index.CacheSize, logger.New("retriever"))
	if err != nil {
		return nil, closer, err
	}
	qaSvc := qa.NewService(ret, answer.NewGenerator(model, cfg.QA.AnswerTemperature()), cfg.Index.TopK, policy(cfg.QA.Retry), logger.New("qa"))

	companyJSON := loadProfile(cfg.Profile.Path, log).JSON()
	dispatcher := agent.NewDispatcher(model, agent.Options{
		Temperature:      cfg.Agents.Temperature,
		Temperatures:     cfg.Agents.Temperatures,
		MaxDocumentChars: cfg.Agents.MaxDocumentChars,
		CompanyProfile:   companyJSON,
		Log:              logger.New("agent"),
	})

	if err := proposal.SetLicense(cfg.Proposal.LicenseKey()); err != nil {
		log.WithError(err).Warn("proposal documents may fail to save")
	}

	svc := service.NewRFPService(service.Deps{
		AnalyzerChunker:  splitter(cfg.Chunker.Analyzer),
		IndexChunker:     splitter(cfg.Chunker.Index),
		Builder:          builder,
		Indexes:          store,
		Agents:           dispatcher,
		QA:               qaSvc,
		Aggregator:       aggregator.New(qaSvc, cfg.QA.SectionTimeout(), logger.New("aggregator")),
		Feedback:         feedback.NewLogger(cfg.Feedback.Path),
		Summarizer:       summarizer.NewFrequencySummarizer(),
		PreviewSentences: cfg.Index.PreviewSentences,
		RiskProfile:      companyJSON,
		ProposalProfile:  loadProfile(cfg.Profile.ProposalPath, log),
		ProposalDir:      cfg.Proposal.OutputDir,
		Log:              logger.New("service"),
	})
	return svc, closer, nil
}

func embeddingSpace(cfg *config.AppConfig, client *genai.Client) (embedding.Space, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return embedding.Fitted(tfidf.Name, tfidf.Fitter{}), nil
	case "gemini", "":
		return embedding.Fixed(embgemini.New(client, cfg.Gemini.EmbeddingModel)), nil
	}
	return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
}

func splitter(c config.SplitConfig) *chunker.RecursiveChunker {
	return chunker.NewRecursive(chunker.WithMaxSize(c.MaxSize), chunker.WithOverlap(c.Overlap))
}

func policy(c config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Attempts,
		BaseDelay:   c.BaseDelay(),
		Multiplier:  c.Multiplier,
		MaxDelay:    c.MaxDelay(),
	}
}

// loadProfile returns an empty profile when path cannot be read.
func loadProfile(path string, log *logrus.Entry) *profile.Profile {
	p, err := profile.Load(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("company profile unavailable, continuing without it")
		return &profile.Profile{}
	}
	return p
}
