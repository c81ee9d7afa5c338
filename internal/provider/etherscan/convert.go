package etherscan

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

const (
	etherDecimals = 18
	hashLen       = 32
)

// convertTx reports false for rows without a timestamp; they cannot be priced.
func (c *Client) convertTx(ctx context.Context, raw apiTx) (model.Transaction, bool, error) {
	if err := checkHash(raw.Hash); err != nil {
		return model.Transaction{}, false, err
	}
	ts := parseInt(raw.TimeStamp)
	if ts <= 0 {
		return model.Transaction{}, false, nil
	}
	at := time.Unix(ts, 0).UTC()

	valueETH, err := c.valueETH(ctx, raw, at)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("tx %s value: %w", raw.Hash, err)
	}
	feeETH, err := gasFee(raw)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("tx %s fee: %w", raw.Hash, err)
	}

	rate := c.prices.ETHToBTC(ctx, at)
	value, err := btcutil.NewAmount(valueETH * rate)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("tx %s value: %w", raw.Hash, err)
	}
	fee, err := btcutil.NewAmount(feeETH * rate)
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("tx %s fee: %w", raw.Hash, err)
	}

	return model.Transaction{
		Hash:        strings.ToLower(raw.Hash),
		BlockHeight: parseInt(raw.BlockNumber),
		Fee:         int64(fee),
		Inputs:      []model.TxIO{{Address: strings.ToLower(raw.From), Value: int64(value)}},
		Outputs:     []model.TxIO{{Address: strings.ToLower(raw.To), Value: int64(value)}},
	}, true, nil
}

func (c *Client) valueETH(ctx context.Context, raw apiTx, at time.Time) (float64, error) {
	if !raw.token {
		return scaled(raw.Value, etherDecimals)
	}

	decimals := etherDecimals
	if raw.TokenDecimal != "" {
		d, err := strconv.Atoi(raw.TokenDecimal)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("token decimals %q", raw.TokenDecimal)
		}
		decimals = d
	}
	amount, err := scaled(raw.Value, decimals)
	if err != nil || amount == 0 {
		return 0, err
	}
	token := Token{Contract: strings.ToLower(raw.ContractAddress), Symbol: raw.TokenSymbol, Decimals: decimals}
	return amount * c.prices.TokenToETH(ctx, token, at), nil
}

func gasFee(raw apiTx) (float64, error) {
	if raw.GasUsed == "" || raw.GasPrice == "" {
		return 0, nil
	}
	used, ok := new(big.Int).SetString(raw.GasUsed, 10)
	if !ok {
		return 0, fmt.Errorf("gas used %q", raw.GasUsed)
	}
	price, ok := new(big.Int).SetString(raw.GasPrice, 10)
	if !ok {
		return 0, fmt.Errorf("gas price %q", raw.GasPrice)
	}
	return toUnits(new(big.Int).Mul(used, price), etherDecimals), nil
}

// scaled reads an integer amount of base units as whole units.
func scaled(value string, decimals int) (float64, error) {
	if value == "" {
		return 0, nil
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 {
		return 0, fmt.Errorf("amount %q", value)
	}
	return toUnits(n, decimals), nil
}

func toUnits(n *big.Int, decimals int) float64 {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Rat).SetFrac(n, divisor).Float64()
	return f
}

func checkHash(hash string) error {
	raw, ok := strings.CutPrefix(strings.ToLower(hash), "0x")
	if !ok {
		return fmt.Errorf("tx hash %q: missing 0x prefix", hash)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("tx hash %q: %w", hash, err)
	}
	if len(b) != hashLen {
		return fmt.Errorf("tx hash %q: want %d bytes, got %d", hash, hashLen, len(b))
	}
	return nil
}
