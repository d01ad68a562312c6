package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfpassist/internal/domain"
	"rfpassist/internal/llm"
)

type fakeModel struct {
	reply func(prompt string) llm.Result
	reqs  []llm.Request
}

func (f *fakeModel) Complete(_ context.Context, req llm.Request) llm.Result {
	f.reqs = append(f.reqs, req)
	if f.reply == nil {
		return llm.Normalize("ok")
	}
	return f.reply(req.Prompt)
}

const profileJSON = `{
  "Company Legal Name": "Acme Staffing LLC",
  "E-Verify Enrolled": "Yes"
}`

func TestParseName(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"summary", Summary},
		{"VERDICT", Verdict},
		{"Eligibility Verdict", Verdict},
		{"Legal Terms Checklist", Checklist},
		{"submission requirements", Requirements},
		{" Risk Analysis ", Risk},
	}
	for _, tt := range tests {
		got, err := ParseName(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseName("poem")
	assert.ErrorIs(t, err, domain.ErrUnknownAgent)
	assert.Len(t, Names(), 5)
}

func TestPromptsEmbedDocument(t *testing.T) {
	d := NewDispatcher(&fakeModel{}, Options{CompanyProfile: profileJSON})
	doc := "Page limit: 10. {company_profile} stays literal."

	for _, n := range Names() {
		p, err := d.Prompt(n, doc, nil)
		require.NoError(t, err)
		assert.Contains(t, p, doc, n)
		assert.NotContains(t, p, "{document}", n)
	}
}

func TestRequirementsPromptCarriesEVerifyRule(t *testing.T) {
	d := NewDispatcher(&fakeModel{}, Options{})
	p, err := d.Prompt(Requirements, "All contractors must enroll in E-Verify", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p, "You are an expert RFP requirement extractor."))
	assert.Contains(t, p, `treat E-Verify requirements as "preferred,"`)
	assert.Contains(t, p, "unless it explicitly says proposals will be disqualified without it.")
	assert.Contains(t, p, `{"requirement": "E-Verify affidavit", "type": "preferred"}`)
	assert.True(t, strings.HasSuffix(p, ":\n\nAll contractors must enroll in E-Verify"))
}

func TestVerdictPromptEmbedsProfile(t *testing.T) {
	d := NewDispatcher(&fakeModel{}, Options{CompanyProfile: profileJSON})
	p, err := d.Prompt(Verdict, "RFP body", nil)
	require.NoError(t, err)

	assert.Contains(t, p, "### RFP Document:\nRFP body\n\n### Company Profile:\n"+profileJSON)
	assert.Contains(t, p, "Do **not count** conditional requirements that do not apply to this company as missing.")
	assert.Contains(t, p, "```json\n{ \n  \"eligible\": true or false,")
}

func TestRiskPromptProfileSection(t *testing.T) {
	d := NewDispatcher(&fakeModel{}, Options{})
	plain, err := d.Prompt(Risk, "doc", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(plain, "Use bullet points. No extra commentary.:\n\ndoc"))

	withProfile, err := d.Prompt(Risk, "doc", map[string]string{ExtraCompanyProfile: profileJSON})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(withProfile, "### Company Profile:\n"+profileJSON))
}

func TestRunUsesConfiguredTemperature(t *testing.T) {
	m := &fakeModel{}
	d := NewDispatcher(m, Options{Temperature: 0, Temperatures: map[string]float32{"summary": 0.4}})

	_, err := d.Run(context.Background(), Summary, "doc", nil)
	require.NoError(t, err)
	_, err = d.Run(context.Background(), Checklist, "doc", nil)
	require.NoError(t, err)

	require.Len(t, m.reqs, 2)
	assert.InDelta(t, 0.4, m.reqs[0].Temperature, 1e-6)
	assert.Zero(t, m.reqs[1].Temperature)
}

func TestRunRejectsOverlongDocument(t *testing.T) {
	m := &fakeModel{}
	d := NewDispatcher(m, Options{MaxDocumentChars: 10})

	_, err := d.Run(context.Background(), Summary, strings.Repeat("é", 11), nil)
	assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)
	assert.Empty(t, m.reqs)

	_, err = d.Run(context.Background(), Summary, strings.Repeat("é", 10), nil)
	assert.NoError(t, err)
}

func TestRunUnknownAgent(t *testing.T) {
	_, err := NewDispatcher(&fakeModel{}, Options{}).Run(context.Background(), Name("poem"), "doc", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownAgent)
}

func TestRunReportsEmptyOutput(t *testing.T) {
	m := &fakeModel{reply: func(string) llm.Result { return llm.BlockedResult() }}
	out, err := NewDispatcher(m, Options{}).Run(context.Background(), Risk, "doc", nil)
	require.NoError(t, err)
	assert.Equal(t, Output{Agent: Risk, Empty: true, Blocked: true}, out)
}

func TestRunRequirementsClassifiesEVerifyAsPreferred(t *testing.T) {
	// The fake model only downgrades E-Verify when the prompt instructs it to.
	m := &fakeModel{reply: func(prompt string) llm.Result {
		typ := "must_have"
		if strings.Contains(prompt, `treat E-Verify requirements as "preferred,"`) {
			typ = "preferred"
		}
		return llm.Normalize("```json\n[{\"requirement\": \"E-Verify enrollment\", \"type\": \"" + typ + "\"}]\n```")
	}}
	d := NewDispatcher(m, Options{})

	reqs, _, err := d.RunRequirements(context.Background(), "All contractors must enroll in E-Verify")
	require.NoError(t, err)
	assert.Equal(t, []Requirement{{Requirement: "E-Verify enrollment", Type: Preferred}}, reqs)
}

func TestRunVerdictExcludesConditionalRequirements(t *testing.T) {
	m := &fakeModel{reply: func(string) llm.Result {
		return llm.Normalize(`Here is the evaluation:
{
  "eligible": true,
  "verdict": "moderately eligible",
  "reasoning": "Bonding applies only to construction work, which this company does not bid.",
  "mandatory_requirements": ["Business license", "Liability insurance"],
  "optional_requirements": ["E-Verify"],
  "met_mandatory": ["Business license"],
  "met_optional": ["E-Verify"],
  "missing_mandatory": ["Liability insurance", "Performance bond for construction", "Business license"]
}`)
	}}
	v, _, err := NewDispatcher(m, Options{CompanyProfile: profileJSON}).RunVerdict(context.Background(), "doc")
	require.NoError(t, err)

	assert.Equal(t, ModeratelyEligible, v.Verdict)
	assert.True(t, v.Eligible)
	assert.Equal(t, []string{"Liability insurance"}, v.MissingMandatory)
}

func TestRunStructuredEmptyOutput(t *testing.T) {
	m := &fakeModel{reply: func(string) llm.Result { return llm.Result{Empty: true} }}
	d := NewDispatcher(m, Options{})

	_, _, err := d.RunRequirements(context.Background(), "doc")
	assert.ErrorIs(t, err, domain.ErrNoOutput)
	_, _, err = d.RunVerdict(context.Background(), "doc")
	assert.ErrorIs(t, err, domain.ErrNoOutput)
}

func TestJoinChunks(t *testing.T) {
	assert.Equal(t, "a\n\nb", JoinChunks([]string{"a", "b"}))
}
