package aggregation

import "token-radar/internal/domain"

// TokenWindow accumulates per-token metrics over one lookback window.
type TokenWindow struct {
	Mint string

	BuyVolumeSOL  float64
	BuyVolumeUSD  float64
	SellVolumeSOL float64
	SellVolumeUSD float64
	LastTradeAt   int64 // max trade timestamp (ms)

	// TraderSpendUSD maps trader → cumulative USD spend in the window.
	TraderSpendUSD map[string]float64
}

// FoldTrades folds a trade set into per-token windows.
func FoldTrades(trades []*domain.Trade) map[string]*TokenWindow {
	windows := make(map[string]*TokenWindow)
	for _, t := range trades {
		w, ok := windows[t.Mint]
		if !ok {
			w = &TokenWindow{
				Mint:           t.Mint,
				TraderSpendUSD: make(map[string]float64),
			}
			windows[t.Mint] = w
		}

		if t.IsBuy {
			w.BuyVolumeSOL += t.AmountSOL
			w.BuyVolumeUSD += t.AmountUSD
		} else {
			w.SellVolumeSOL += t.AmountSOL
			w.SellVolumeUSD += t.AmountUSD
		}
		if t.Timestamp > w.LastTradeAt {
			w.LastTradeAt = t.Timestamp
		}
		w.TraderSpendUSD[t.Trader] += t.AmountUSD
	}
	return windows
}

// VolumeSOL returns total window volume in SOL.
func (w *TokenWindow) VolumeSOL() float64 {
	return w.BuyVolumeSOL + w.SellVolumeSOL
}

// VolumeUSD returns total window volume in USD.
func (w *TokenWindow) VolumeUSD() float64 {
	return w.BuyVolumeUSD + w.SellVolumeUSD
}

// BuySellRatio returns buy volume over total volume in SOL, or 0 when
// the window has no volume.
func (w *TokenWindow) BuySellRatio() float64 {
	total := w.VolumeSOL()
	if total <= 0 {
		return 0
	}
	return w.BuyVolumeSOL / total
}

// UniqueTraders counts traders whose cumulative window spend falls
// inside [min, max] USD, both bounds inclusive, nil meaning unbounded.
func (w *TokenWindow) UniqueTraders(min, max *float64) int {
	count := 0
	for _, spend := range w.TraderSpendUSD {
		if min != nil && spend < *min {
			continue
		}
		if max != nil && spend > *max {
			continue
		}
		count++
	}
	return count
}
