package features

import (
	"slices"
	"strings"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// ethereumNames is the Ethereum model's input layout: the canonical names
// without "Time step" and the composites.
var ethereumNames = canonicalNames[1 : Size-10]

// EthereumNames returns the features the Ethereum model reads, in the order
// it reads them.
func EthereumNames() []string {
	return slices.Clone(ethereumNames)
}

// ExtractEthereum builds the feature vector of an Ethereum address. Amounts
// are BTC equivalents. Only sends and receipts of non-zero value count, fees
// come from sent transactions alone, and features outside EthereumNames
// stay 0.
func ExtractEthereum(txs []model.Transaction, target string) Vector {
	target = strings.ToLower(target)

	var (
		s    = series{interactions: make(map[string]int)}
		meet = func(addr string) {
			if addr != "" {
				s.interactions[addr]++
			}
		}
	)
	for _, tx := range txs {
		if tx.BlockHeight > 0 {
			s.blocks = append(s.blocks, tx.BlockHeight)
		}
		flow := tx.FlowOf(target)

		if flow.Has(model.Send) {
			fee := toBTC(tx.Fee)
			s.fees = append(s.fees, fee)
			if flow.Sent > 0 {
				value := toBTC(flow.Sent)
				s.sent = append(s.sent, value)
				s.transacted = append(s.transacted, value)
				s.feeShares = append(s.feeShares, fee/value*100)
				if tx.BlockHeight > 0 {
					s.sentBlocks = append(s.sentBlocks, tx.BlockHeight)
				}
				// Self-transfers count target as a counterparty.
				for _, out := range tx.Outputs {
					meet(out.Address)
				}
			}
		}
		if flow.Has(model.Receive) && flow.Received > 0 {
			value := toBTC(flow.Received)
			s.received = append(s.received, value)
			s.transacted = append(s.transacted, value)
			if tx.BlockHeight > 0 {
				s.recvBlocks = append(s.recvBlocks, tx.BlockHeight)
			}
			for _, in := range tx.Inputs {
				meet(in.Address)
			}
		}
	}

	b := builder{}
	b.set("num_txs_as_sender", float64(len(s.sent)))
	b.set("num_txs_as_receiver", float64(len(s.received)))
	b.set("total_txs", float64(len(s.sent)+len(s.received)))
	setBlockFeatures(b, s)
	delete(b, "Time step")

	b.setStats("btc_transacted", s.transacted)
	b.setStats("btc_sent", s.sent)
	b.setStats("btc_received", s.received)
	b.setStats("fees", s.fees)
	b.setStats("fees_as_share", s.feeShares)
	b.setStats("blocks_btwn_txs", distinctIntervals(s.blocks))
	b.setStats("blocks_btwn_input_txs", distinctIntervals(s.sentBlocks))
	b.setStats("blocks_btwn_output_txs", distinctIntervals(s.recvBlocks))

	setInteractionFeatures(b, s.interactions)
	// The total is the number of distinct counterparties, not the sum of
	// interactions.
	b.set("transacted_w_address_total", float64(len(s.interactions)))
	return b.vector()
}

// distinctIntervals returns the gaps between consecutive distinct heights.
func distinctIntervals(heights []int64) []float64 {
	sorted := slices.Clone(heights)
	slices.Sort(sorted)
	return intervals(slices.Compact(sorted))
}
