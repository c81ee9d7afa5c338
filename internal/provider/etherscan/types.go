package etherscan

import (
	"context"
	"encoding/json"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// Prices quotes Ether and ERC-20 tokens at the time of a transaction.
	// Quotes never fail; a missing quote falls back or reads as 0.
	Prices interface {
		// ETHToBTC returns BTC per ETH.
		ETHToBTC(ctx context.Context, at time.Time) float64
		// TokenToETH returns ETH per whole token, or 0 when no source prices it.
		TokenToETH(ctx context.Context, token Token, at time.Time) float64
	}
)

// Token identifies an ERC-20 contract.
type Token struct {
	Contract string
	Symbol   string
	Decimals int
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiTx is a row of the txlist and tokentx actions. Every number is a decimal
// string.
type apiTx struct {
	Hash            string `json:"hash"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`

	token bool
}
