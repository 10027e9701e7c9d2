package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommissionAmountCents(t *testing.T) {
	cases := []struct {
		name      string
		saleCents int64
		rateBps   int64
		want      int64
	}{
		{"ten percent of 5000", 5000, 1000, 500},
		{"floors toward zero", 999, 1000, 99},
		{"single cent sale", 1, 1000, 0},
		{"full rate", 2500, 10000, 2500},
		{"zero rate", 5000, 0, 0},
		{"zero sale", 0, 1000, 0},
		{"negative sale clamps to zero", -5000, 1000, 0},
		{"negative rate clamps to zero", 5000, -100, 0},
		{"odd rate floors", 1001, 333, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CommissionAmountCents(tc.saleCents, tc.rateBps))
		})
	}
}
