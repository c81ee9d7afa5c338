package mempool

import (
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

type apiPrevout struct {
	Address string `json:"scriptpubkey_address"`
	Value   int64  `json:"value"`
}

type apiVin struct {
	TxID       string      `json:"txid"`
	IsCoinbase bool        `json:"is_coinbase"`
	Prevout    *apiPrevout `json:"prevout"`
}

type apiVout struct {
	Address string `json:"scriptpubkey_address"`
	Value   int64  `json:"value"`
}

type apiStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
}

type apiTx struct {
	TxID   string    `json:"txid"`
	Fee    int64     `json:"fee"`
	Status apiStatus `json:"status"`
	Vin    []apiVin  `json:"vin"`
	Vout   []apiVout `json:"vout"`
}
