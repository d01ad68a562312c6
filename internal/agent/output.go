package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"rfpassist/internal/domain"
)

// RequirementType classifies an extracted requirement.
type RequirementType string

const (
	MustHave  RequirementType = "must_have"
	Preferred RequirementType = "preferred"
)

// Requirement is one item of the requirements agent's JSON array.
type Requirement struct {
	Requirement string          `json:"requirement"`
	Type        RequirementType `json:"type"`
}

// ParseRequirements decodes the requirements agent output. Code fences and
// surrounding prose are tolerated; unknown types are not.
func ParseRequirements(text string) ([]Requirement, error) {
	body := extractJSON(text, '[', ']')
	var reqs []Requirement
	if err := json.Unmarshal([]byte(body), &reqs); err != nil {
		return nil, fmt.Errorf("%w: requirements: %v", domain.ErrInvalidOutput, err)
	}
	for i := range reqs {
		t := RequirementType(strings.ToLower(strings.TrimRight(strings.TrimSpace(string(reqs[i].Type)), ".")))
		if t != MustHave && t != Preferred {
			return nil, fmt.Errorf("%w: requirement %q has type %q", domain.ErrInvalidOutput, reqs[i].Requirement, reqs[i].Type)
		}
		reqs[i].Type = t
		reqs[i].Requirement = strings.TrimSpace(reqs[i].Requirement)
	}
	return reqs, nil
}

// Level is the three-step eligibility verdict.
type Level string

const (
	HighlyEligible     Level = "Highly Eligible"
	ModeratelyEligible Level = "Moderately Eligible"
	NotEligible        Level = "Not Eligible"
)

// EligibilityVerdict is the verdict agent's JSON object.
type EligibilityVerdict struct {
	Eligible              bool     `json:"eligible"`
	Verdict               Level    `json:"verdict"`
	Reasoning             string   `json:"reasoning"`
	MandatoryRequirements []string `json:"mandatory_requirements"`
	OptionalRequirements  []string `json:"optional_requirements"`
	MetMandatory          []string `json:"met_mandatory"`
	MetOptional           []string `json:"met_optional"`
	MissingMandatory      []string `json:"missing_mandatory"`
}

// ParseVerdict decodes and normalises the verdict agent output.
func ParseVerdict(text string) (EligibilityVerdict, error) {
	var v EligibilityVerdict
	if err := json.Unmarshal([]byte(extractJSON(text, '{', '}')), &v); err != nil {
		return v, fmt.Errorf("%w: verdict: %v", domain.ErrInvalidOutput, err)
	}
	if err := v.Normalize(); err != nil {
		return v, err
	}
	return v, nil
}

// Normalize canonicalises the verdict level and prunes missing_mandatory of
// duplicates and of items the model also reported as met or optional.
// Every other reported item is kept, whatever its wording. The eligible
// flag is left as the model returned it.
func (v *EligibilityVerdict) Normalize() error {
	switch {
	case strings.EqualFold(string(v.Verdict), string(HighlyEligible)):
		v.Verdict = HighlyEligible
	case strings.EqualFold(string(v.Verdict), string(ModeratelyEligible)):
		v.Verdict = ModeratelyEligible
	case strings.EqualFold(string(v.Verdict), string(NotEligible)):
		v.Verdict = NotEligible
	default:
		return fmt.Errorf("%w: verdict %q", domain.ErrInvalidOutput, v.Verdict)
	}

	met := keySet(v.MetMandatory)
	optional := keySet(v.OptionalRequirements)
	seen := map[string]struct{}{}
	missing := []string{}
	for _, m := range v.MissingMandatory {
		k := key(m)
		if k == "" {
			continue
		}
		if _, ok := met[k]; ok {
			continue
		}
		if _, ok := optional[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, m)
	}
	v.MissingMandatory = missing
	return nil
}

func key(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }

func keySet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[key(s)] = struct{}{}
	}
	return m
}

// extractJSON strips markdown fences and prose around the outermost
// openCh...closeCh span of text.
func extractJSON(text string, openCh, closeCh byte) string {
	start := strings.IndexByte(text, openCh)
	end := strings.LastIndexByte(text, closeCh)
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}
