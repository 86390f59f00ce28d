package domain

// Trade represents one executed trade from the append-only ledger.
// This core only reads trades; the write path is owned by ingestion.
type Trade struct {
	Mint      string  // token mint address
	Timestamp int64   // Unix timestamp in milliseconds
	IsBuy     bool    // true for buy, false for sell
	AmountSOL float64 // trade size in SOL
	AmountUSD float64 // trade size in USD at execution time
	Trader    string  // trader wallet address
}
