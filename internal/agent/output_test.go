package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfpassist/internal/domain"
)

func TestParseRequirements(t *testing.T) {
	got, err := ParseRequirements(`[
  {"requirement": "E-Verify affidavit", "type": "preferred"},
  {"requirement": " Signed Non-Collusion Affidavit ", "type": "Must_Have"},
  {"requirement": "W-9", "type": "preferred."}
]`)
	require.NoError(t, err)
	assert.Equal(t, []Requirement{
		{Requirement: "E-Verify affidavit", Type: Preferred},
		{Requirement: "Signed Non-Collusion Affidavit", Type: MustHave},
		{Requirement: "W-9", Type: Preferred},
	}, got)
}

func TestParseRequirementsErrors(t *testing.T) {
	for _, in := range []string{
		"no json here",
		`[{"requirement": "x", "type": "optional"}]`,
		`{"requirement": "x"}`,
	} {
		_, err := ParseRequirements(in)
		assert.ErrorIs(t, err, domain.ErrInvalidOutput, in)
	}

	got, err := ParseRequirements("[]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVerdictNormalize(t *testing.T) {
	v := EligibilityVerdict{
		Eligible:              false,
		Verdict:               "NOT ELIGIBLE",
		MandatoryRequirements: []string{"State  registration", "Insurance"},
		OptionalRequirements:  []string{"Local office"},
		MetMandatory:          []string{"insurance"},
		MissingMandatory:      []string{"state registration", "State registration", "Insurance", "local  office", " "},
	}
	require.NoError(t, v.Normalize())
	assert.Equal(t, NotEligible, v.Verdict)
	assert.False(t, v.Eligible)
	assert.Equal(t, []string{"state registration"}, v.MissingMandatory)

	bad := EligibilityVerdict{Verdict: "Maybe"}
	assert.ErrorIs(t, bad.Normalize(), domain.ErrInvalidOutput)
}

func TestParseVerdictKeepsReworded(t *testing.T) {
	v, err := ParseVerdict(`{
  "eligible": false,
  "verdict": "Not Eligible",
  "reasoning": "No Texas license on file.",
  "mandatory_requirements": ["Valid Texas contractor license", "Certificate of insurance"],
  "optional_requirements": [],
  "met_mandatory": ["Certificate of insurance"],
  "met_optional": [],
  "missing_mandatory": ["Texas contractor license (valid)"]
}`)
	require.NoError(t, err)
	assert.Equal(t, NotEligible, v.Verdict)
	assert.False(t, v.Eligible)
	assert.Equal(t, []string{"Texas contractor license (valid)"}, v.MissingMandatory)
}

func TestParseVerdictKeepsEligibleFlag(t *testing.T) {
	v, err := ParseVerdict(`{"eligible": false, "verdict": "moderately eligible", "reasoning": "", "missing_mandatory": []}`)
	require.NoError(t, err)
	assert.Equal(t, ModeratelyEligible, v.Verdict)
	assert.False(t, v.Eligible)
}

func TestParseVerdictFenced(t *testing.T) {
	v, err := ParseVerdict("```json\n{\"eligible\": true, \"verdict\": \"Highly Eligible\", \"reasoning\": \"all met\", \"mandatory_requirements\": [\"A\"], \"met_mandatory\": [\"A\"], \"missing_mandatory\": []}\n```")
	require.NoError(t, err)
	assert.Equal(t, HighlyEligible, v.Verdict)
	assert.Equal(t, "all met", v.Reasoning)
	assert.Empty(t, v.MissingMandatory)

	_, err = ParseVerdict("not json")
	assert.ErrorIs(t, err, domain.ErrInvalidOutput)
}
