package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotPrice computes the total price for a time range at an hourly
// rate. Duration is taken at minute granularity so fractional hours
// price correctly (e.g. 2.5h at 50.00 -> 125.00). Money stays in
// decimal arithmetic end to end; the result carries two fractional
// digits to match currency conventions.
func SlotPrice(start, end time.Time, pricePerHour decimal.Decimal) decimal.Decimal {
	minutes := int64(end.Sub(start) / time.Minute)
	hours := decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
	return hours.Mul(pricePerHour).Round(2)
}
