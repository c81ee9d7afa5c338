package classifier

import (
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

type classifyRequest struct {
	Address      string    `json:"address"`
	Chain        string    `json:"chain"`
	Features     []float64 `json:"features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

type classifyOk struct {
	IsRansomware         bool    `json:"is_ransomware"`
	Probability          float64 `json:"ransomware_probability"`
	ConfidenceLevel      string  `json:"confidence_level"`
	ThresholdUsed        float64 `json:"threshold_used"`
	TransactionsAnalyzed int     `json:"transactions_analyzed"`
}

type classifyResponse struct {
	Ok  *classifyOk `json:"Ok"`
	Err *string     `json:"Err"`
}
