package model

import "time"

// HistoryStatus is the lifecycle status of a history item.
type HistoryStatus string

var (
	StatusInProgress HistoryStatus = "in_progress"
	StatusCompleted  HistoryStatus = "completed"
	StatusFailed     HistoryStatus = "failed"
)

// Terminal reports whether the status is final.
func (s HistoryStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FailureReason is the machine readable cause of a failed run.
type FailureReason string

var (
	ReasonTransactionFetch    FailureReason = "TransactionFetchError"
	ReasonNoTransactionsFound FailureReason = "NoTransactionsFound"
	ReasonClassification      FailureReason = "ClassificationError"
	ReasonAggregation         FailureReason = "AggregationError"
	ReasonTimeout             FailureReason = "Timeout"
	ReasonCancelled           FailureReason = "Cancelled"
)

// ErrorCategory groups failures into user-facing message classes.
type ErrorCategory string

var (
	CategoryConfigurationAuth  ErrorCategory = "configuration_auth"
	CategoryConnectivity       ErrorCategory = "connectivity"
	CategoryRateLimited        ErrorCategory = "rate_limited"
	CategoryInvalidAddress     ErrorCategory = "invalid_address"
	CategoryServiceUnavailable ErrorCategory = "service_unavailable"
	CategoryTimeout            ErrorCategory = "timeout"
	CategoryCancelled          ErrorCategory = "cancelled"
)

var categoryMessages = map[ErrorCategory]string{
	CategoryConfigurationAuth:  "Analysis service is misconfigured or rejected our credentials",
	CategoryConnectivity:       "Unable to reach the transaction provider",
	CategoryRateLimited:        "Too many requests, please try again later",
	CategoryInvalidAddress:     "Invalid or inactive address",
	CategoryServiceUnavailable: "Analysis service is temporarily unavailable",
	CategoryTimeout:            "Analysis timed out",
	CategoryCancelled:          "Analysis was cancelled",
}

// Message returns the user-facing message of the category.
func (c ErrorCategory) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return "Analysis failed"
}

// Failure describes why a run ended in the failed status.
type Failure struct {
	Reason   FailureReason `json:"reason"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Detail   string        `json:"detail,omitempty"`
}

// AnalysisHistoryItem is the persisted record of one analysis run.
type AnalysisHistoryItem struct {
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	TokenType ChainKind       `json:"token_type"`
	Status    HistoryStatus   `json:"status"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Failure   *Failure        `json:"failure,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
