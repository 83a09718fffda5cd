// Package agent defines the specialty profiles used to analyze medical
// reports: each profile pairs a prompt persona with a keyword list and can
// score how relevant an arbitrary piece of text is to its specialty.
package agent

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Profile describes one medical specialty persona. Profiles are immutable
// after construction and safe for concurrent use.
type Profile struct {
	key          string
	name         string
	icon         string
	description  string
	systemPrompt string
	keywords     []string
}

// NewProfile creates a specialty profile. An empty keyword set is a
// configuration error: scoring divides by the keyword count.
func NewProfile(key, name, icon, description, systemPrompt string, keywords []string) (*Profile, error) {
	if key == "" {
		return nil, errors.New("agent: profile key is required")
	}
	if len(keywords) == 0 {
		return nil, errors.Errorf("agent: profile %q has an empty keyword set", key)
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	return &Profile{
		key:          key,
		name:         name,
		icon:         icon,
		description:  description,
		systemPrompt: systemPrompt,
		keywords:     lowered,
	}, nil
}

func (p *Profile) Key() string         { return p.key }
func (p *Profile) Name() string        { return p.name }
func (p *Profile) Icon() string        { return p.icon }
func (p *Profile) Description() string { return p.description }

// Keywords returns a copy of the profile's keyword set.
func (p *Profile) Keywords() []string {
	out := make([]string, len(p.keywords))
	copy(out, p.keywords)
	return out
}

// Confidence scores how relevant the input text is to this specialty.
// A keyword counts when it occurs as a case-insensitive substring anywhere in
// the text; the score is min(matches/K * 2, 1.0) so that roughly half the
// keyword list appearing saturates confidence. Empty input scores 0.
func (p *Profile) Confidence(text string) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}

	score := float64(matches) / float64(len(p.keywords)) * 2
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// AnalysisPrompt builds the full completion prompt for analyzing a report
// from this specialty's perspective. All instructions precede the data
// section so prompt truncation only ever cuts report content.
func (p *Profile) AnalysisPrompt(reportText, symptoms, medicalHistory string) string {
	if symptoms == "" {
		symptoms = "None reported"
	}
	if medicalHistory == "" {
		medicalHistory = "None provided"
	}

	return fmt.Sprintf(analysisTemplate,
		p.name,
		p.systemPrompt,
		p.name,
		p.name,
		p.name,
		strings.ToLower(p.name),
		reportText,
		symptoms,
		medicalHistory,
	)
}
