package btcnode

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// outputAddress returns the address paid by vout. Outputs with no address or
// several (bare multisig) yield an empty string.
func outputAddress(vout btcjson.Vout, params *chaincfg.Params) (string, error) {
	if vout.ScriptPubKey.Address != "" {
		return vout.ScriptPubKey.Address, nil
	}
	if len(vout.ScriptPubKey.Addresses) == 1 {
		return vout.ScriptPubKey.Addresses[0], nil
	}
	if len(vout.ScriptPubKey.Addresses) > 1 || vout.ScriptPubKey.Hex == "" {
		return "", nil
	}

	script, err := hex.DecodeString(vout.ScriptPubKey.Hex)
	if err != nil {
		return "", err
	}
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, params)
	if err != nil {
		return "", err
	}
	if len(addrs) != 1 {
		return "", nil
	}
	return addrs[0].EncodeAddress(), nil
}

// ChainParams maps a network name to btcd chain parameters.
func ChainParams(network model.Network) (*chaincfg.Params, error) {
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
