package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney_RendersFromDecimalParts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1350", "$1,350.00"},
		{"0.5", "$0.50"},
		{"450", "$450.00"},
		{"2999200.049", "$2,999,200.05"},
		{"-120", "-$120.00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, money(decimal.RequireFromString(c.in)), "input %s", c.in)
	}
}
