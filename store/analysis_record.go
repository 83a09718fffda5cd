package store

// AgentAnalysis is one specialist's generated analysis as persisted with a record.
type AgentAnalysis struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	Confidence float64 `json:"confidence"`
	Analysis   string  `json:"analysis"`
}

// AnalysisRecord is one completed report analysis.
type AnalysisRecord struct {
	UID           string
	SessionID     string
	ReportExcerpt string
	Symptoms      string
	History       string

	PrimarySpecialty  string
	PrimaryConfidence float64
	FellBack          bool

	Secondary []string
	Analyses  []AgentAnalysis

	CreatedTs int64
	ID        int32
}

type FindAnalysisRecord struct {
	ID        *int32
	UID       *string
	SessionID *string
	Limit     *int
	Offset    *int
}

type DeleteAnalysisRecord struct {
	ID        *int32
	UID       *string
	SessionID *string
}

// AnalysisStats summarizes stored analyses for one session.
type AnalysisStats struct {
	Total       int64
	ThisMonth   int64
	ByPrimary   map[string]int64
	LastCreated int64
}
