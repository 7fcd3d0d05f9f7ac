package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		name       string
		city       string
		subtotal   int64
		wantMethod string
		wantFee    int64
	}{
		{"default post rate", "Shiraz", 2000, MethodPost, 60000},
		{"capital courier rate", "Tehran", 2000, MethodCourier, 30000},
		{"capital is case insensitive", "tehran", 2000, MethodCourier, 30000},
		{"capital with whitespace", "  TEHRAN  ", 2000, MethodCourier, 30000},
		{"capital native spelling", "تهران", 2000, MethodCourier, 30000},
		{"free at threshold", "Shiraz", 1_000_000, MethodFree, 0},
		{"free above threshold", "Shiraz", 1_500_000, MethodFree, 0},
		{"free overrides capital rate", "Tehran", 1_500_000, MethodFree, 0},
		{"just below threshold", "Shiraz", 999_999, MethodPost, 60000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			method, fee := Calculate(c.city, c.subtotal)
			assert.Equal(t, c.wantMethod, method)
			assert.Equal(t, c.wantFee, fee)
		})
	}
}
