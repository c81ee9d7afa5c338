package model

// ConfidenceLevel is the classifier's own confidence band.
type ConfidenceLevel string

var (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// Valid reports whether the level is one of the known bands.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// ClassificationResult is the normalized verdict of the remote classifier.
type ClassificationResult struct {
	Address              string          `json:"address"`
	IsRansomware         bool            `json:"is_ransomware"`
	Probability          float64         `json:"probability"`
	ConfidenceLevel      ConfidenceLevel `json:"confidence_level"`
	ThresholdUsed        float64         `json:"threshold_used"`
	TransactionsAnalyzed int             `json:"transactions_analyzed"`
}
