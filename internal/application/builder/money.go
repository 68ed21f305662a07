package builder

import (
	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/document"
)

// priceScale is the precision of a recomputed unit price.
const priceScale = 6

// money rounds to cents, half away from zero.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// reconcilePrice keeps price when price*qty matches lineExtension within the
// tolerance, otherwise derives it from lineExtension/qty at six decimals.
func reconcilePrice(price, qty, lineExtension decimal.Decimal) decimal.Decimal {
	if price.Mul(qty).Sub(lineExtension).Abs().LessThanOrEqual(document.Tolerance) {
		return price
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return lineExtension.DivRound(qty, priceScale)
}
