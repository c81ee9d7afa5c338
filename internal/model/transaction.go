package model

import "time"

// Direction is the role an address plays in a transaction.
type Direction string

var (
	Send    Direction = "send"
	Receive Direction = "receive"
)

// TxIO is one input or output leg of a transaction. Address is empty for
// non-standard scripts.
type TxIO struct {
	Address string `json:"address,omitempty"`
	Value   int64  `json:"value"`
}

// Transaction is a fetched transaction with amounts in satoshis.
type Transaction struct {
	Hash        string `json:"hash"`
	BlockHeight int64  `json:"block_height"`
	Fee         int64  `json:"fee"`
	Inputs      []TxIO `json:"inputs"`
	Outputs     []TxIO `json:"outputs"`
}

// Flow summarizes how an address participates in a single transaction.
type Flow struct {
	Sent     int64
	Received int64
	Roles    []Direction
}

// Has reports whether the flow includes the given role.
func (f Flow) Has(d Direction) bool {
	for _, r := range f.Roles {
		if r == d {
			return true
		}
	}
	return false
}

// FlowOf computes the amounts sent and received by address within the transaction.
func (t Transaction) FlowOf(address string) Flow {
	var f Flow
	sender, receiver := false, false
	for _, in := range t.Inputs {
		if in.Address == address {
			sender = true
			f.Sent += in.Value
		}
	}
	for _, out := range t.Outputs {
		if out.Address == address {
			receiver = true
			f.Received += out.Value
		}
	}
	if sender {
		f.Roles = append(f.Roles, Send)
	}
	if receiver {
		f.Roles = append(f.Roles, Receive)
	}
	return f
}

// Counterparties returns the distinct addresses other than address that appear in the transaction.
func (t Transaction) Counterparties(address string) []string {
	seen := make(map[string]struct{}, len(t.Inputs)+len(t.Outputs))
	out := make([]string, 0, len(t.Inputs)+len(t.Outputs))
	add := func(legs []TxIO) {
		for _, leg := range legs {
			if leg.Address == "" || leg.Address == address {
				continue
			}
			if _, ok := seen[leg.Address]; ok {
				continue
			}
			seen[leg.Address] = struct{}{}
			out = append(out, leg.Address)
		}
	}
	add(t.Inputs)
	add(t.Outputs)
	return out
}

// CacheEntry is the persisted transaction history of an address.
type CacheEntry struct {
	Address      string        `json:"address"`
	Transactions []Transaction `json:"transactions"`
	FetchedAt    time.Time     `json:"fetched_at"`
}
