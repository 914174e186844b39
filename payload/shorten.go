package payload

// Truncation for human-readable notification text only; correctness-bearing
// fields (data maps, collapse keys) always carry the full value.
const (
	shortenThreshold = 12
	shortenPrefix    = 5
	shortenSuffix    = 4
)

// ShortenAddress renders a long address as "bc1qx…wxyz".
func ShortenAddress(address string) string {
	return shorten(address)
}

// ShortenTxid renders a long transaction id the same way.
func ShortenTxid(txid string) string {
	return shorten(txid)
}

func shorten(s string) string {
	if len(s) <= shortenThreshold {
		return s
	}
	return s[:shortenPrefix] + "…" + s[len(s)-shortenSuffix:]
}
