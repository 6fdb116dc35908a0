package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	for _, tt := range []struct {
		amount   float64
		expected string
	}{
		{amount: 2500000, expected: "2.5 million"},
		{amount: 1000000, expected: "1 million"},
		{amount: 1990000, expected: "1.9 million"},
		{amount: 1999999, expected: "1.9 million"},
		{amount: 490000, expected: "490K"},
		{amount: 123456, expected: "123.4K"},
		{amount: 1000, expected: "1K"},
		{amount: 999.5, expected: "999.50"},
		{amount: 999, expected: "999.00"},
		{amount: 1234.56, expected: "1.2K"},
		{amount: 0, expected: "0.00"},
	} {
		assert.Equal(t, tt.expected, FormatAmount(tt.amount), "amount %v", tt.amount)
	}
}
