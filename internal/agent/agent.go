// Package agent runs the fixed RFP analysis prompts over a whole document.
package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"rfpassist/internal/domain"
	"rfpassist/internal/llm"
	"rfpassist/internal/logger"
)

// Name identifies one analysis agent.
type Name string

const (
	Summary      Name = "summary"
	Checklist    Name = "checklist"
	Requirements Name = "requirements"
	Risk         Name = "risk"
	Verdict      Name = "verdict"
)

// ExtraCompanyProfile is the extra input key carrying the company profile
// for the risk agent.
const ExtraCompanyProfile = "company_profile"

var titles = map[Name]string{
	Verdict:      "Eligibility Verdict",
	Checklist:    "Legal Terms Checklist",
	Requirements: "Submission Requirements",
	Summary:      "Summary",
	Risk:         "Risk Analysis",
}

// Names returns every agent in menu order.
func Names() []Name { return []Name{Verdict, Checklist, Requirements, Summary, Risk} }

// Title returns the display title of n.
func (n Name) Title() string { return titles[n] }

// ParseName accepts an agent name or its display title, case-insensitively.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for _, n := range Names() {
		if strings.EqualFold(s, string(n)) || strings.EqualFold(s, n.Title()) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownAgent, s)
}

// JoinChunks rebuilds the full document text handed to every agent.
func JoinChunks(chunks []string) string { return strings.Join(chunks, "\n\n") }

// Completer is satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) llm.Result
}

// Options configures a Dispatcher.
type Options struct {
	// Temperature applies to every agent without an entry in Temperatures.
	Temperature  float32
	Temperatures map[string]float32
	// MaxDocumentChars rejects longer documents; zero disables the check.
	MaxDocumentChars int
	// CompanyProfile is embedded into the verdict prompt.
	CompanyProfile string
	Log            *logrus.Entry
}

// Output is the raw text one agent produced.
type Output struct {
	Agent   Name
	Text    string
	Empty   bool
	Blocked bool
}

// template is a prompt split around its document placeholder.
type template struct {
	before, after string
}

func (t template) render(document string) string { return t.before + document + t.after }

func compile(tmpl string, vars map[string]string) template {
	before, after, _ := strings.Cut(tmpl, "{document}")
	for k, v := range vars {
		before = strings.ReplaceAll(before, "{"+k+"}", v)
		after = strings.ReplaceAll(after, "{"+k+"}", v)
	}
	return template{before: before, after: after}
}

// Dispatcher formats agent prompts and sends them to the model.
type Dispatcher struct {
	model     Completer
	opts      Options
	templates map[Name]template
	log       *logrus.Entry
}

// NewDispatcher compiles every template. The company profile is fixed into
// the verdict prompt here.
func NewDispatcher(model Completer, opts Options) *Dispatcher {
	profile := map[string]string{ExtraCompanyProfile: opts.CompanyProfile}
	return &Dispatcher{
		model: model,
		opts:  opts,
		templates: map[Name]template{
			Summary:      compile(summaryTemplate, nil),
			Checklist:    compile(checklistTemplate, nil),
			Requirements: compile(requirementsTemplate, nil),
			Risk:         compile(riskTemplate, nil),
			Verdict:      compile(verdictTemplate, profile),
		},
		log: logger.OrDiscard(opts.Log),
	}
}

// Prompt returns the exact prompt sent for name.
func (d *Dispatcher) Prompt(name Name, document string, extra map[string]string) (string, error) {
	t, ok := d.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAgent, name)
	}
	prompt := t.render(document)
	if name == Risk && extra[ExtraCompanyProfile] != "" {
		prompt += strings.ReplaceAll(riskProfileSection, "{"+ExtraCompanyProfile+"}", extra[ExtraCompanyProfile])
	}
	return prompt, nil
}

// Temperature returns the sampling temperature used for name.
func (d *Dispatcher) Temperature(name Name) float32 {
	if t, ok := d.opts.Temperatures[string(name)]; ok {
		return t
	}
	return d.opts.Temperature
}

// Run invokes one agent over the whole document in a single model call.
// Documents over the configured budget fail with ErrDocumentTooLarge
// before the model is called.
func (d *Dispatcher) Run(ctx context.Context, name Name, document string, extra map[string]string) (Output, error) {
	if limit := d.opts.MaxDocumentChars; limit > 0 {
		if n := utf8.RuneCountInString(document); n > limit {
			return Output{}, fmt.Errorf("%w: %d characters, limit %d", domain.ErrDocumentTooLarge, n, limit)
		}
	}
	prompt, err := d.Prompt(name, document, extra)
	if err != nil {
		return Output{}, err
	}
	log := d.log.WithField("agent", name)
	log.WithField("chars", len(prompt)).Debug("running agent")

	res := d.model.Complete(ctx, llm.Request{Prompt: prompt, Temperature: d.Temperature(name)})
	out := Output{Agent: name, Text: res.Text, Empty: res.Empty, Blocked: res.Blocked}
	if out.Empty {
		log.WithField("blocked", out.Blocked).Warn("agent produced no output")
	}
	return out, nil
}

// RunRequirements runs the requirements agent and parses its JSON array.
func (d *Dispatcher) RunRequirements(ctx context.Context, document string) ([]Requirement, Output, error) {
	out, err := d.Run(ctx, Requirements, document, nil)
	if err != nil {
		return nil, out, err
	}
	if out.Empty {
		return nil, out, fmt.Errorf("requirements: %w", domain.ErrNoOutput)
	}
	reqs, err := ParseRequirements(out.Text)
	return reqs, out, err
}

// RunVerdict runs the verdict agent and returns its normalised verdict.
func (d *Dispatcher) RunVerdict(ctx context.Context, document string) (EligibilityVerdict, Output, error) {
	out, err := d.Run(ctx, Verdict, document, nil)
	if err != nil {
		return EligibilityVerdict{}, out, err
	}
	if out.Empty {
		return EligibilityVerdict{}, out, fmt.Errorf("verdict: %w", domain.ErrNoOutput)
	}
	v, err := ParseVerdict(out.Text)
	return v, out, err
}
