package community

import (
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

type reportPayload struct {
	Category       string   `json:"category"`
	VotesYes       int      `json:"votes_yes"`
	VotesNo        int      `json:"votes_no"`
	Evidence       []string `json:"evidence"`
	CreatedAt      int64    `json:"created_at"`
	VotingDeadline int64    `json:"voting_deadline"`
}

type reportResponse struct {
	IsSafe bool           `json:"is_safe"`
	Report *reportPayload `json:"report"`
}
