package btcnode

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/pkg/safe"
)

// btcToSatoshis converts a BTC float from the node into satoshis.
func btcToSatoshis(value float64) (int64, error) {
	amt, err := btcutil.NewAmount(value)
	if err != nil {
		return 0, err
	}
	if amt < 0 {
		return 0, fmt.Errorf("negative amount: %d", amt)
	}
	return int64(amt), nil
}

// convertTx maps a verbose search result into the model. The block height is
// derived from the confirmation count against tip. The fee is only known when
// every non-coinbase input carries its previous output.
func convertTx(src *btcjson.SearchRawTransactionsResult, tip int64, params *chaincfg.Params) (model.Transaction, error) {
	tx := model.Transaction{
		Hash:    src.Txid,
		Inputs:  make([]model.TxIO, 0, len(src.Vin)),
		Outputs: make([]model.TxIO, 0, len(src.Vout)),
	}
	confirmations, err := safe.Int64(src.Confirmations)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s confirmations: %w", src.Txid, err)
	}
	if confirmations > 0 {
		if height := tip - confirmations + 1; height > 0 {
			tx.BlockHeight = height
		}
	}

	var totalIn, totalOut int64
	feeKnown := true
	for idx, vin := range src.Vin {
		if vin.IsCoinBase() {
			feeKnown = false
			continue
		}
		if vin.PrevOut == nil {
			feeKnown = false
			continue
		}
		value, err := btcToSatoshis(vin.PrevOut.Value)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("tx %s input %d value: %w", src.Txid, idx, err)
		}
		address := ""
		if len(vin.PrevOut.Addresses) == 1 {
			address = vin.PrevOut.Addresses[0]
		}
		totalIn += value
		tx.Inputs = append(tx.Inputs, model.TxIO{Address: address, Value: value})
	}

	for idx, vout := range src.Vout {
		value, err := btcToSatoshis(vout.Value)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("tx %s output %d value: %w", src.Txid, idx, err)
		}
		address, err := outputAddress(vout, params)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("decode address for tx %s output %d: %w", src.Txid, idx, err)
		}
		totalOut += value
		tx.Outputs = append(tx.Outputs, model.TxIO{Address: address, Value: value})
	}

	if feeKnown && totalIn >= totalOut {
		tx.Fee = totalIn - totalOut
	}
	return tx, nil
}
