// Package shipping prices delivery for an order. Pure computation, no I/O.
package shipping

import "strings"

const (
	MethodPost    = "post"
	MethodCourier = "courier"
	MethodFree    = "free"

	feePost    = 60000
	feeCourier = 30000

	// FreeThreshold is the merged-cart subtotal at which shipping is free.
	FreeThreshold = 1_000_000
)

// City comparison is lowercase+trim everywhere; both the latin and the native
// spelling of the capital get the courier rate.
var capitalTokens = map[string]bool{
	"tehran": true,
	"تهران":  true,
}

// Calculate maps (city, subtotal) to a shipping method and fee. Must be
// called exactly once per checkout, with the final merged subtotal.
func Calculate(city string, subtotal int64) (method string, fee int64) {
	method, fee = MethodPost, feePost

	if capitalTokens[strings.ToLower(strings.TrimSpace(city))] {
		method, fee = MethodCourier, feeCourier
	}
	if subtotal >= FreeThreshold {
		method, fee = MethodFree, 0
	}
	return method, fee
}
