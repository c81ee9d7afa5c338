// Package aggregator merges the classifier verdict and the community report
// into a single analysis result.
package aggregator

import (
	"errors"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// ErrNoSignals is returned when neither a classification nor a report is available.
var ErrNoSignals = errors.New("no classification or community signal available")

const (
	highRiskThreshold   = 0.8
	mediumRiskThreshold = 0.5

	// noVotesConfidence is reported for a community-only result nobody has voted on.
	noVotesConfidence = 50.0
)

var levelConfidence = map[model.ConfidenceLevel]float64{
	model.ConfidenceHigh:   95,
	model.ConfidenceMedium: 75,
	model.ConfidenceLow:    50,
}

// Aggregate merges the available signals. now decides whether community voting has ended.
func Aggregate(classification *model.ClassificationResult, report *model.CommunityReport, now time.Time) (model.AnalysisResult, error) {
	switch {
	case classification != nil && report != nil:
		ai := fromClassification(*classification)
		community := fromReport(*report, now)

		merged := model.AnalysisResult{
			IsSafe:        ai.IsSafe && community.IsSafe,
			Confidence:    max(ai.Confidence, community.Confidence),
			RiskLevel:     mostSevere(ai.RiskLevel, community.RiskLevel),
			Source:        model.SourceAIAndCommunity,
			AIData:        ai.AIData,
			CommunityData: community.CommunityData,
		}
		return merged, nil
	case classification != nil:
		return fromClassification(*classification), nil
	case report != nil:
		return fromReport(*report, now), nil
	default:
		return model.AnalysisResult{}, ErrNoSignals
	}
}

func fromClassification(c model.ClassificationResult) model.AnalysisResult {
	ai := c
	return model.AnalysisResult{
		IsSafe:     !c.IsRansomware,
		Confidence: levelConfidence[c.ConfidenceLevel],
		RiskLevel:  riskFromRatio(c.Probability),
		Source:     model.SourceAI,
		AIData:     &ai,
	}
}

func fromReport(r model.CommunityReport, now time.Time) model.AnalysisResult {
	report := r
	report.Evidence = append([]string(nil), r.Evidence...)

	confidence := noVotesConfidence
	risk := model.RiskUnknown
	if total := r.TotalVotes(); total > 0 {
		ratio := float64(r.VotesYes) / float64(total)
		confidence = ratio * 100
		risk = riskFromRatio(ratio)
	}

	return model.AnalysisResult{
		IsSafe:     r.VotesYes <= r.VotesNo,
		Confidence: confidence,
		RiskLevel:  risk,
		Source:     model.SourceCommunity,
		CommunityData: &model.CommunityData{
			Report:      report,
			VotingEnded: r.Expired(now),
		},
	}
}

func riskFromRatio(ratio float64) model.RiskLevel {
	switch {
	case ratio >= highRiskThreshold:
		return model.RiskHigh
	case ratio >= mediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func mostSevere(a, b model.RiskLevel) model.RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
