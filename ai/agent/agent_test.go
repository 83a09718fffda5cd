package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProfile(t *testing.T, keywords []string) *Profile {
	t.Helper()
	p, err := NewProfile("test", "Test", "🔬", "test specialty", "You are a test specialist.", keywords)
	require.NoError(t, err)
	return p
}

func TestNewProfileRejectsEmptyKeywords(t *testing.T) {
	_, err := NewProfile("test", "Test", "", "", "", nil)
	require.Error(t, err)

	_, err = NewProfile("test", "Test", "", "", "", []string{})
	require.Error(t, err)
}

func TestConfidenceFormula(t *testing.T) {
	// score = min(2m/n, 1.0) for m matching keywords out of n.
	testCases := []struct {
		name     string
		keywords []string
		text     string
		expected float64
	}{
		{"no matches", []string{"heart", "lung", "brain", "liver"}, "routine checkup", 0},
		{"one of four", []string{"heart", "lung", "brain", "liver"}, "heart murmur noted", 0.5},
		{"two of four", []string{"heart", "lung", "brain", "liver"}, "heart and lung sounds clear", 1.0},
		{"all of four capped", []string{"heart", "lung", "brain", "liver"}, "heart lung brain liver", 1.0},
		{"one of two saturates", []string{"heart", "chest pain"}, "Patient reports chest pain and normal labs", 1.0},
		{"empty text", []string{"heart"}, "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := mustProfile(t, tc.keywords)
			assert.InDelta(t, tc.expected, p.Confidence(tc.text), 1e-9)
		})
	}
}

func TestConfidenceCaseInsensitive(t *testing.T) {
	p := mustProfile(t, []string{"ECG", "Chest Pain", "troponin"})
	text := "Abnormal ecg with CHEST PAIN, elevated Troponin"

	score := p.Confidence(text)
	assert.Equal(t, score, p.Confidence(strings.ToUpper(text)))
	assert.Equal(t, score, p.Confidence(strings.ToLower(text)))
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestConfidenceUnanchoredSubstrings(t *testing.T) {
	p := mustProfile(t, []string{"cardio", "lung"})
	// Matches inside other words count.
	assert.InDelta(t, 1.0, p.Confidence("echocardiogram"), 1e-9)
}

func TestAnalysisPromptContents(t *testing.T) {
	p := mustProfile(t, []string{"heart"})
	prompt := p.AnalysisPrompt("elevated LDL", "chest tightness", "smoker")

	assert.Contains(t, prompt, "You are a test specialist.")
	assert.Contains(t, prompt, "Medical Report: elevated LDL")
	assert.Contains(t, prompt, "Current Symptoms: chest tightness")
	assert.Contains(t, prompt, "Medical History: smoker")

	// Instructions precede the data marker so truncation only cuts content.
	marker := strings.Index(prompt, "DATA TO ANALYZE:")
	require.Positive(t, marker)
	assert.Contains(t, prompt[:marker], "FORMATTING RULES")
	assert.NotContains(t, prompt[marker:], "FORMATTING RULES")
}

func TestAnalysisPromptDefaults(t *testing.T) {
	p := mustProfile(t, []string{"heart"})
	prompt := p.AnalysisPrompt("report", "", "")

	assert.Contains(t, prompt, "Current Symptoms: None reported")
	assert.Contains(t, prompt, "Medical History: None provided")
}

func TestDefaults(t *testing.T) {
	profiles, err := Defaults()
	require.NoError(t, err)
	require.Len(t, profiles, 4)

	keys := make([]string, len(profiles))
	for i, p := range profiles {
		keys[i] = p.Key()
		assert.NotEmpty(t, p.Keywords(), "profile %s must have keywords", p.Key())
		assert.NotEmpty(t, p.Icon())
		assert.NotEmpty(t, p.Description())
	}
	assert.Equal(t, []string{KeyCardiology, KeyPsychology, KeyPulmonology, KeyGeneral}, keys)
	assert.Equal(t, KeyGeneral, profiles[len(profiles)-1].Key(), "general must be last")
}

func TestKeywordsReturnsCopy(t *testing.T) {
	p := mustProfile(t, []string{"heart", "lung"})
	kws := p.Keywords()
	kws[0] = "mutated"
	assert.Equal(t, []string{"heart", "lung"}, p.Keywords())
}

func TestChatPrompt(t *testing.T) {
	prompt := ChatPrompt("what is a fever?")
	assert.Contains(t, prompt, "USER MESSAGE: what is a fever?")
	assert.Contains(t, prompt, "BRIEF")
}
