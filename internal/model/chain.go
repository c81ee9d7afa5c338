package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ChainKind identifies the blockchain an address belongs to.
type ChainKind string

// Network identifies the network of a chain.
type Network string

var (
	Bitcoin  ChainKind = "Bitcoin"
	Ethereum ChainKind = "Ethereum"
	Solana   ChainKind = "Solana"
	Fradium  ChainKind = "Fradium"
	Unknown  ChainKind = "Unknown"
)

var (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrUnsupportedChain = errors.New("chain not supported")
)

var (
	ethereumAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solanaAddressRe   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	// Fradium accounts are Internet Computer principals in their textual form,
	// e.g. rrkah-fqaaa-aaaaa-aaaaq-cai.
	principalRe = regexp.MustCompile(`^([a-z2-7]{5}-)+[a-z2-7]{1,5}$`)
)

// analyzable lists the chains the pipeline has a transaction source and
// feature layout for.
var analyzable = map[ChainKind]bool{
	Bitcoin:  true,
	Ethereum: true,
}

// DetectChain classifies an address by its textual shape. Bitcoin candidates are
// decoded with btcutil so a malformed checksum yields Unknown.
func DetectChain(address string) ChainKind {
	address = strings.TrimSpace(address)
	switch {
	case address == "":
		return Unknown
	case isBitcoinAddress(address):
		return Bitcoin
	case ethereumAddressRe.MatchString(address):
		return Ethereum
	case principalRe.MatchString(address):
		return Fradium
	case solanaAddressRe.MatchString(address):
		return Solana
	default:
		return Unknown
	}
}

// BitcoinNetwork reports the network a Bitcoin address was encoded for.
func BitcoinNetwork(address string) (Network, error) {
	for _, candidate := range []struct {
		network Network
		params  *chaincfg.Params
	}{
		{Mainnet, &chaincfg.MainNetParams},
		{Testnet, &chaincfg.TestNet3Params},
	} {
		addr, err := btcutil.DecodeAddress(address, candidate.params)
		if err == nil && addr.IsForNet(candidate.params) {
			return candidate.network, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a bitcoin address", ErrInvalidAddress, address)
}

// ResolveAnalyzable returns the chain of an address that the pipeline can analyze.
func ResolveAnalyzable(address string) (ChainKind, error) {
	kind := DetectChain(address)
	switch {
	case analyzable[kind]:
		return kind, nil
	case kind == Unknown:
		return kind, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	default:
		return kind, fmt.Errorf("%w: %s", ErrUnsupportedChain, kind)
	}
}

// NormalizeAddress returns the form of address used as cache and history key.
// Ethereum addresses are case-insensitive and kept in lower case.
func NormalizeAddress(kind ChainKind, address string) string {
	address = strings.TrimSpace(address)
	if kind == Ethereum {
		return strings.ToLower(address)
	}
	return address
}

func isBitcoinAddress(address string) bool {
	_, err := BitcoinNetwork(address)
	return err == nil
}
