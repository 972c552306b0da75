package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVenueSet_Match(t *testing.T) {
	tests := []struct {
		program string
		match   bool
	}{
		{"Raydium.IO Router", true},
		{"JUP.AG aggregator v6", true},
		{"Orca Whirlpools (orca.so)", true},
		{"raydium", false},
		{"Jupiter", false},
		{"", false},
		{"System Program", false},
	}

	for _, tt := range tests {
		t.Run(tt.program, func(t *testing.T) {
			assert.Equal(t, tt.match, DefaultVenues.Match(tt.program))
		})
	}
}

func TestVenueSet_DetectSwap(t *testing.T) {
	raydium := []RawInstruction{{ProgramID: "675k", ProgramName: strPtr("Raydium.IO Router")}}
	unknown := []RawInstruction{{ProgramID: "Tokenkeg"}, {ProgramName: strPtr("Token Program")}}

	tests := []struct {
		name         string
		instructions []RawInstruction
		transfers    int
		expected     bool
	}{
		{"venue with two transfers", raydium, 2, true},
		{"venue with many transfers", raydium, 5, true},
		{"venue with one transfer", raydium, 1, false},
		{"venue with no transfers", raydium, 0, false},
		{"no venue", unknown, 3, false},
		{"no instructions", nil, 3, false},
		{"venue after unrelated instruction", append(unknown, raydium...), 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultVenues.DetectSwap(tt.instructions, tt.transfers))
		})
	}
}

func TestVenueSet_Extended(t *testing.T) {
	venues := append(VenueSet{"meteora.ag"}, DefaultVenues...)
	ix := []RawInstruction{{ProgramName: strPtr("Meteora.ag DLMM")}}

	assert.False(t, DefaultVenues.DetectSwap(ix, 2))
	assert.True(t, venues.DetectSwap(ix, 2))
}
