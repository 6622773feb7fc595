package settlement

import "github.com/shopspring/decimal"

// Commission is fixed: the platform keeps 25%, the seller 75%.
var sellerRate = decimal.RequireFromString("0.75")

// Split divides a sale price into seller earnings and platform
// commission. The seller share is rounded first and the commission is
// the remainder, so the two always sum to the rounded price.
func Split(price decimal.Decimal) (seller, commission decimal.Decimal) {
	rounded := price.Round(2)
	seller = price.Mul(sellerRate).Round(2)
	commission = rounded.Sub(seller)
	return seller, commission
}
