package domain

import (
	"strings"
	"time"
)

// CashAssetID is the asset id denoting the cash (USDC) side of a fill.
const CashAssetID = "0"

// Fill is a raw two-sided order fill as recorded by the exchange.
// Corresponds to the orders fact table of the analytical store.
// Amounts are raw on-chain units (6 decimals for both cash and outcome tokens).
type Fill struct {
	ID                string // "<tx hash>_<order hash>"
	Timestamp         time.Time
	Maker             string
	Taker             string
	MakerAssetID      string
	TakerAssetID      string
	MakerAmountFilled uint64
	TakerAmountFilled uint64
	IsDeleted         bool
}

// BaseID returns the fill id up to the first underscore.
// Records produced by the same transaction share a base id.
func (f *Fill) BaseID() string {
	if i := strings.IndexByte(f.ID, '_'); i >= 0 {
		return f.ID[:i]
	}
	return f.ID
}

// InvolvesCash reports whether either side of the fill trades the cash asset.
func (f *Fill) InvolvesCash(cashAssetID string) bool {
	return f.MakerAssetID == cashAssetID || f.TakerAssetID == cashAssetID
}
