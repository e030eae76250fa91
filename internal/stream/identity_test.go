package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAccountID(t *testing.T) {
	tests := []struct {
		accountID int64
		want      string
	}{
		{0, "00000000-0000-0000-0000-000000000000"},
		{1, "00000000-0000-0000-0000-000000000001"},
		{42, "00000000-0000-0000-0000-000000000042"},
		{123456789, "00000000-0000-0000-0000-000123456789"},
		{999999999999, "00000000-0000-0000-0000-999999999999"},
	}

	for _, tt := range tests {
		got := FormatAccountID(tt.accountID)
		assert.Equal(t, tt.want, got)
		assert.Len(t, got, 36)
	}
}
