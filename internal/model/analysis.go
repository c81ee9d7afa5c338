package model

// RiskLevel grades how risky an address is.
type RiskLevel string

var (
	RiskUnknown RiskLevel = "Unknown"
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
)

// Severity orders risk levels, Unknown being the least severe.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// Source names the signals an analysis result was derived from.
type Source string

var (
	SourceAI             Source = "ai"
	SourceCommunity      Source = "community"
	SourceAIAndCommunity Source = "ai_and_community"
)

// CommunityData is the community side of an analysis result.
type CommunityData struct {
	Report      CommunityReport `json:"report"`
	VotingEnded bool            `json:"voting_ended"`
}

// AnalysisResult is the merged verdict of one analysis run.
type AnalysisResult struct {
	IsSafe        bool                  `json:"is_safe"`
	Confidence    float64               `json:"confidence"`
	RiskLevel     RiskLevel             `json:"risk_level"`
	Source        Source                `json:"source"`
	AIData        *ClassificationResult `json:"ai_data,omitempty"`
	CommunityData *CommunityData        `json:"community_data,omitempty"`
}
