package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// convertTx maps an API transaction into the model. Coinbase inputs carry no
// counterparty and are skipped; unconfirmed transactions get height 0.
func convertTx(src apiTx) (model.Transaction, error) {
	if _, err := chainhash.NewHashFromStr(src.TxID); err != nil || len(src.TxID) != chainhash.MaxHashStringSize {
		return model.Transaction{}, fmt.Errorf("invalid txid %q", src.TxID)
	}
	if src.Fee < 0 {
		return model.Transaction{}, fmt.Errorf("tx %s: negative fee %d", src.TxID, src.Fee)
	}

	tx := model.Transaction{
		Hash:    src.TxID,
		Fee:     src.Fee,
		Inputs:  make([]model.TxIO, 0, len(src.Vin)),
		Outputs: make([]model.TxIO, 0, len(src.Vout)),
	}
	if src.Status.Confirmed && src.Status.BlockHeight > 0 {
		tx.BlockHeight = src.Status.BlockHeight
	}

	for i, in := range src.Vin {
		if in.IsCoinbase || in.Prevout == nil {
			continue
		}
		if in.Prevout.Value < 0 {
			return model.Transaction{}, fmt.Errorf("tx %s input %d: negative value", src.TxID, i)
		}
		tx.Inputs = append(tx.Inputs, model.TxIO{Address: in.Prevout.Address, Value: in.Prevout.Value})
	}
	for i, out := range src.Vout {
		if out.Value < 0 {
			return model.Transaction{}, fmt.Errorf("tx %s output %d: negative value", src.TxID, i)
		}
		tx.Outputs = append(tx.Outputs, model.TxIO{Address: out.Address, Value: out.Value})
	}
	return tx, nil
}
