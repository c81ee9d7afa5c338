package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/features"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	TransactionFetcher interface {
		Fetch(ctx context.Context, address string) ([]model.Transaction, error)
	}

	Classifier interface {
		Classify(ctx context.Context, address string, vector features.Vector) (model.ClassificationResult, error)
	}

	// ReportFetcher returns nil without error when no report exists.
	ReportFetcher interface {
		FetchReport(ctx context.Context, address string) (*model.CommunityReport, error)
	}

	HistoryRecorder interface {
		Begin(ctx context.Context, address string, chain model.ChainKind) (model.AnalysisHistoryItem, error)
		Complete(ctx context.Context, id string, result model.AnalysisResult) (model.AnalysisHistoryItem, error)
		Fail(ctx context.Context, id string, failure model.Failure) (model.AnalysisHistoryItem, error)
	}

	Metrics interface {
		ObserveStage(stage string, err error, started time.Time)
		ObserveRun(status, reason string, started time.Time)
		ObserveRetry(call string)
	}
)

// Extractor turns the transactions of target into a feature vector.
type Extractor func(txs []model.Transaction, target string) features.Vector

// Chain wires the chain-specific stages of a run.
type Chain struct {
	Fetcher    TransactionFetcher
	Extract    Extractor
	Classifier Classifier
}

func (c Chain) validate() error {
	if c.Fetcher == nil {
		return errors.New("transaction fetcher is required")
	}
	if c.Extract == nil {
		return errors.New("extractor is required")
	}
	if c.Classifier == nil {
		return errors.New("classifier is required")
	}
	return nil
}
