// Package features turns an address's transaction history into the fixed
// numeric vector consumed by the risk classifier.
package features

// Size is the length of every feature vector.
const Size = 66

var canonicalNames = [Size]string{
	"Time step",
	"num_txs_as_sender",
	"num_txs_as_receiver",
	"first_block_appeared_in",
	"last_block_appeared_in",
	"lifetime_in_blocks",
	"total_txs",
	"first_sent_block",
	"first_received_block",
	"num_timesteps_appeared_in",
	"btc_transacted_total",
	"btc_transacted_min",
	"btc_transacted_max",
	"btc_transacted_mean",
	"btc_transacted_median",
	"btc_sent_total",
	"btc_sent_min",
	"btc_sent_max",
	"btc_sent_mean",
	"btc_sent_median",
	"btc_received_total",
	"btc_received_min",
	"btc_received_max",
	"btc_received_mean",
	"btc_received_median",
	"fees_total",
	"fees_min",
	"fees_max",
	"fees_mean",
	"fees_median",
	"fees_as_share_total",
	"fees_as_share_min",
	"fees_as_share_max",
	"fees_as_share_mean",
	"fees_as_share_median",
	"blocks_btwn_txs_total",
	"blocks_btwn_txs_min",
	"blocks_btwn_txs_max",
	"blocks_btwn_txs_mean",
	"blocks_btwn_txs_median",
	"blocks_btwn_input_txs_total",
	"blocks_btwn_input_txs_min",
	"blocks_btwn_input_txs_max",
	"blocks_btwn_input_txs_mean",
	"blocks_btwn_input_txs_median",
	"blocks_btwn_output_txs_total",
	"blocks_btwn_output_txs_min",
	"blocks_btwn_output_txs_max",
	"blocks_btwn_output_txs_mean",
	"blocks_btwn_output_txs_median",
	"num_addr_transacted_multiple",
	"transacted_w_address_total",
	"transacted_w_address_min",
	"transacted_w_address_max",
	"transacted_w_address_mean",
	"transacted_w_address_median",
	"partner_transaction_ratio",
	"activity_density",
	"transaction_size_variance",
	"flow_imbalance",
	"temporal_spread",
	"fee_percentile",
	"interaction_intensity",
	"value_per_transaction",
	"burst_activity",
	"mixing_intensity",
}

var nameIndex = func() map[string]int {
	idx := make(map[string]int, Size)
	for i, name := range canonicalNames {
		idx[name] = i
	}
	return idx
}()

// Names returns the canonical feature names in vector order.
func Names() []string {
	out := make([]string, Size)
	copy(out, canonicalNames[:])
	return out
}

// Index returns the position of a named feature.
func Index(name string) (int, bool) {
	i, ok := nameIndex[name]
	return i, ok
}
