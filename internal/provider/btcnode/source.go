// Package btcnode reads address transaction histories from a btcd node with
// the address index enabled.
package btcnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"go.uber.org/zap"
)

// DefaultPageSize is the number of transactions requested per RPC call.
const DefaultPageSize = 100

// Source implements address history lookups over node RPC.
type Source struct {
	rpc      RPC
	params   *chaincfg.Params
	pageSize int
	logger   *zap.Logger
}

// NewSource creates a Source for the given network.
func NewSource(rpc RPC, network model.Network, pageSize int, logger *zap.Logger) (*Source, error) {
	if rpc == nil {
		return nil, errors.New("rpc client is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	params, err := ChainParams(network)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Source{
		rpc:      rpc,
		params:   params,
		pageSize: pageSize,
		logger:   logger.Named("btcnode"),
	}, nil
}

// Transactions returns up to limit transactions of address, newest first.
func (s *Source) Transactions(ctx context.Context, address string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	addr, err := btcutil.DecodeAddress(address, s.params)
	if err != nil || !addr.IsForNet(s.params) {
		return nil, fmt.Errorf("%w: %q is not a %s address", model.ErrInvalidAddress, address, s.params.Name)
	}

	tip, err := s.rpc.GetBlockCount()
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}

	out := make([]model.Transaction, 0, min(limit, s.pageSize))
	for skip := 0; len(out) < limit; skip += s.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		count := min(s.pageSize, limit-len(out))
		page, err := s.rpc.SearchRawTransactionsVerbose(addr, skip, count, true, true, nil)
		if err != nil {
			if isNoTxInfo(err) {
				break
			}
			return nil, fmt.Errorf("search transactions of %s at %d: %w", address, skip, err)
		}

		for _, raw := range page {
			if raw == nil {
				continue
			}
			tx, err := convertTx(raw, tip, s.params)
			if err != nil {
				return nil, err
			}
			out = append(out, tx)
		}
		if len(page) < count {
			break
		}
	}

	s.logger.Debug("fetched address transactions", zap.String("address", address), zap.Int("count", len(out)))
	return out, nil
}

// isNoTxInfo reports the node's answer for an address it has never seen.
func isNoTxInfo(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo
}
