package deck

import "math"

// beatGrid is the beat layout of a track: a tempo and the position of its first beat.
type beatGrid struct {
	bpm      float64
	offsetMs int64
}

func (g beatGrid) beatMs() float64 {
	return 60_000 / g.bpm
}

// phase returns where pos falls inside its beat, in [0, 1).
func (g beatGrid) phase(pos int64) float64 {
	beat := g.beatMs()
	p := math.Mod(float64(pos-g.offsetMs), beat)
	if p < 0 {
		p += beat
	}
	return p / beat
}

// alignedPosition returns the position on grid b closest to ref whose phase equals the
// phase of ref on grid a. The result may be negative or past the end; callers clamp.
func alignedPosition(a beatGrid, ref int64, b beatGrid) int64 {
	phase := a.phase(ref)
	beat := b.beatMs()
	n := math.Round((float64(ref-b.offsetMs))/beat - phase)
	return int64(math.Round(float64(b.offsetMs) + (n+phase)*beat))
}

func clamp(pos, duration int64) int64 {
	pos = max(pos, 0)
	if duration > 0 {
		pos = min(pos, duration)
	}
	return pos
}
