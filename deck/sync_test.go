package deck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeatGrid_Phase(t *testing.T) {
	req := require.New(t)
	grid := beatGrid{bpm: 120, offsetMs: 100}

	req.InDelta(0.0, grid.phase(100), 1e-9)
	req.InDelta(0.5, grid.phase(350), 1e-9)
	// Positions before the first beat wrap into [0, 1)
	req.InDelta(0.8, grid.phase(0), 1e-9)
}

func TestAlignedPosition(t *testing.T) {
	tests := []struct {
		name string
		a    beatGrid
		ref  int64
		b    beatGrid
		want int64
	}{
		{"same tempo, shifted grid", beatGrid{bpm: 120}, 1250, beatGrid{bpm: 120, offsetMs: 100}, 1350},
		{"on the beat, slower target", beatGrid{bpm: 120}, 1000, beatGrid{bpm: 100}, 1200},
		{"identical grids", beatGrid{bpm: 128, offsetMs: 40}, 5000, beatGrid{bpm: 128, offsetMs: 40}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alignedPosition(tt.a, tt.ref, tt.b)
			require.Equal(t, tt.want, got)
			require.InDelta(t, tt.a.phase(tt.ref), tt.b.phase(got), 1e-2)
		})
	}
}

func TestClamp(t *testing.T) {
	req := require.New(t)
	req.Equal(int64(0), clamp(-5, 100))
	req.Equal(int64(100), clamp(150, 100))
	// Unknown duration only bounds below
	req.Equal(int64(150), clamp(150, 0))
}
