package features

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// epsilon keeps every composite denominator away from zero.
const epsilon = 1e-8

type series struct {
	transacted   []float64
	sent         []float64
	received     []float64
	fees         []float64
	feeShares    []float64
	blocks       []int64
	sentBlocks   []int64
	recvBlocks   []int64
	interactions map[string]int
}

// Extract builds the feature vector of target from its transactions. Amounts
// are expressed in BTC. Extract performs no I/O and is deterministic.
func Extract(txs []model.Transaction, target string) Vector {
	s := collect(txs, target)

	b := builder{}
	b.set("total_txs", float64(len(txs)))
	b.set("num_txs_as_sender", float64(len(s.sent)))
	b.set("num_txs_as_receiver", float64(len(s.received)))
	setBlockFeatures(b, s)

	b.setStats("btc_transacted", s.transacted)
	b.setStats("btc_sent", s.sent)
	b.setStats("btc_received", s.received)
	b.setStats("fees", s.fees)
	b.setStats("fees_as_share", s.feeShares)
	b.setStats("blocks_btwn_txs", intervals(s.blocks))
	b.setStats("blocks_btwn_input_txs", intervals(s.sentBlocks))
	b.setStats("blocks_btwn_output_txs", intervals(s.recvBlocks))
	setInteractionFeatures(b, s.interactions)

	setComposites(b)
	return b.vector()
}

func collect(txs []model.Transaction, target string) series {
	s := series{interactions: make(map[string]int)}
	for _, tx := range txs {
		if tx.BlockHeight > 0 {
			s.blocks = append(s.blocks, tx.BlockHeight)
		}
		fee := toBTC(tx.Fee)
		s.fees = append(s.fees, fee)

		flow := tx.FlowOf(target)
		sender := flow.Has(model.Send)
		// A zero-value output paying target is not a receipt.
		receiver := flow.Has(model.Receive) && flow.Received > 0
		if sender {
			s.sent = append(s.sent, toBTC(flow.Sent))
			if tx.BlockHeight > 0 {
				s.sentBlocks = append(s.sentBlocks, tx.BlockHeight)
			}
		}
		if receiver {
			s.received = append(s.received, toBTC(flow.Received))
			if tx.BlockHeight > 0 {
				s.recvBlocks = append(s.recvBlocks, tx.BlockHeight)
			}
		}

		// Fee shares only cover transactions target takes part in; a fee
		// paid by strangers says nothing about target's own spending.
		if sender || receiver {
			primary := toBTC(max(flow.Sent, flow.Received))
			s.transacted = append(s.transacted, primary)
			if primary > 0 {
				s.feeShares = append(s.feeShares, fee/primary*100)
			}
		}

		for _, addr := range tx.Counterparties(target) {
			s.interactions[addr]++
		}
	}
	return s
}

func setBlockFeatures(b builder, s series) {
	if len(s.blocks) > 0 {
		first, last := minHeight(s.blocks), maxHeight(s.blocks)
		b.set("first_block_appeared_in", float64(first))
		b.set("last_block_appeared_in", float64(last))
		b.set("lifetime_in_blocks", float64(last-first))

		distinct := make(map[int64]struct{}, len(s.blocks))
		for _, h := range s.blocks {
			distinct[h] = struct{}{}
		}
		b.set("num_timesteps_appeared_in", float64(len(distinct)))
		b.set("Time step", float64(len(distinct)))
	}
	if len(s.sentBlocks) > 0 {
		b.set("first_sent_block", float64(minHeight(s.sentBlocks)))
	}
	if len(s.recvBlocks) > 0 {
		b.set("first_received_block", float64(minHeight(s.recvBlocks)))
	}
}

func setInteractionFeatures(b builder, interactions map[string]int) {
	counts := make([]float64, 0, len(interactions))
	multiple := 0
	for _, n := range interactions {
		counts = append(counts, float64(n))
		if n > 1 {
			multiple++
		}
	}
	b.setStats("transacted_w_address", counts)
	b.set("num_addr_transacted_multiple", float64(multiple))
}

func setComposites(b builder) {
	totalTxs := b.get("total_txs")
	partners := b.get("transacted_w_address_total")

	partnerRatio := partners / (totalTxs + epsilon)
	activityDensity := totalTxs / (b.getDiv("lifetime_in_blocks") + epsilon)
	interactionIntensity := b.get("num_addr_transacted_multiple") / (b.getDiv("transacted_w_address_total") + epsilon)

	b.set("partner_transaction_ratio", partnerRatio)
	b.set("activity_density", activityDensity)
	b.set("transaction_size_variance",
		(b.get("btc_transacted_max")-b.get("btc_transacted_min"))/(b.getDiv("btc_transacted_mean")+epsilon))
	b.set("flow_imbalance",
		(b.get("btc_sent_total")-b.get("btc_received_total"))/(b.getDiv("btc_transacted_total")+epsilon))
	b.set("temporal_spread",
		(b.get("last_block_appeared_in")-b.get("first_block_appeared_in"))/(b.getDiv("num_timesteps_appeared_in")+epsilon))
	b.set("fee_percentile", b.get("fees_total")/(b.getDiv("btc_transacted_total")+epsilon))
	b.set("interaction_intensity", interactionIntensity)
	b.set("value_per_transaction", b.get("btc_transacted_total")/(totalTxs+epsilon))
	b.set("burst_activity", totalTxs*activityDensity)
	b.set("mixing_intensity", partnerRatio*interactionIntensity)
}

func toBTC(sats int64) float64 {
	return btcutil.Amount(sats).ToBTC()
}
