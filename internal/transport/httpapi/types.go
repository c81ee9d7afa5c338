package httpapi

import (
	"context"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/history"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/workflow"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Analyzer interface {
		Start(ctx context.Context, address string) (*workflow.Run, error)
		Analyze(ctx context.Context, address string) (model.AnalysisHistoryItem, error)
		Lookup(id string) (*workflow.Run, bool)
		Cancel(id string) bool
	}

	History interface {
		Get(ctx context.Context, id string) (model.AnalysisHistoryItem, error)
		Search(ctx context.Context, query string) ([]model.AnalysisHistoryItem, error)
		Delete(ctx context.Context, id string) error
		Clear(ctx context.Context) error
		Stats(ctx context.Context) (history.Stats, error)
	}

	Metrics interface {
		Observe(route string, code int, started time.Time)
	}
)

type analyzeRequest struct {
	Address string `json:"address"`
	Async   bool   `json:"async"`
}

type analysisResponse struct {
	model.AnalysisHistoryItem
	State string `json:"state,omitempty"`
}

type acceptedResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type historyResponse struct {
	Items []model.AnalysisHistoryItem `json:"items"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}
