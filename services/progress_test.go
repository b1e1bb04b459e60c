package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name    string
		paidOut int64
		total   int64
		want    float64
	}{
		{"quarter", 250, 1000, 25},
		{"nothing paid", 0, 1000, 0},
		{"fully paid", 1000, 1000, 100},
		{"zero budget", 100, 0, 0},
		{"negative budget", 100, -5, 0},
		{"overpaid clamps", 1500, 1000, 100},
		{"negative paid clamps", -10, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ProgressPercentage(tt.paidOut, tt.total), 1e-9)
		})
	}
}
