package txcache

import (
	"context"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Provider returns up to limit transactions of an address in provider order.
	Provider interface {
		Transactions(ctx context.Context, address string, limit int) ([]model.Transaction, error)
	}

	Metrics interface {
		ObserveLookup(result string, started time.Time)
		ObserveFetched(count int)
	}
)
