// file: internals/features/payment/commissions/service/calculator.go
package service

/* =========================================================
   Commission math
   Integer minor units only. Rates are basis points, so
   floor(amount * rate) falls out of integer division:
   999 cents at 10% (1000 bps) → 99, never 100.
========================================================= */

const bpsDenominator = 10000

// CommissionAmountCents returns floor(saleAmountCents * rateBps / 10000).
// Negative inputs yield 0 — money rows are never written with negative cents.
func CommissionAmountCents(saleAmountCents, rateBps int64) int64 {
	if saleAmountCents <= 0 || rateBps <= 0 {
		return 0
	}
	return saleAmountCents * rateBps / bpsDenominator
}
