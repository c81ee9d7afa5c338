package model

import "time"

// CommunityReport is a crowd-sourced report about an address.
type CommunityReport struct {
	Category  string    `json:"category"`
	VotesYes  int       `json:"votes_yes"`
	VotesNo   int       `json:"votes_no"`
	Evidence  []string  `json:"evidence,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TotalVotes returns the number of votes cast.
func (r CommunityReport) TotalVotes() int {
	return r.VotesYes + r.VotesNo
}

// Expired reports whether voting on the report has ended at now.
func (r CommunityReport) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
