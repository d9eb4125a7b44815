// Package deck drives up to four independent DJ decks and aligns them on demand.
package deck

import (
	"time"

	"room-sync/domain"
)

type Status int

const (
	Empty Status = iota
	Loaded
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "empty"
	}
}

// State is a read-only view of a deck at a point in time.
type State struct {
	Slot         int
	Status       Status
	Track        *domain.Track
	IsPlaying    bool
	Volume       float64
	PositionMs   int64
	DurationMs   int64
	EstimatedBPM *float64
}

// deck keeps its position as an anchor plus the time playing since then,
// so positions advance without polling the player.
type deck struct {
	slot     int
	status   Status
	track    *domain.Track
	volume   float64
	anchorMs int64
	anchorAt time.Time
	bpm      *float64
}

func newDeck(slot int) *deck {
	return &deck{slot: slot, volume: 1}
}

func (d *deck) position(now time.Time) int64 {
	pos := d.anchorMs
	if d.status == Playing {
		pos += now.Sub(d.anchorAt).Milliseconds()
	}
	if d.track != nil && d.track.DurationMs > 0 {
		pos = min(pos, d.track.DurationMs)
	}
	return max(pos, 0)
}

func (d *deck) setPosition(pos int64, now time.Time) {
	d.anchorMs = pos
	d.anchorAt = now
}

func (d *deck) loaded() bool {
	return d.status != Empty && d.track != nil
}

func (d *deck) load(track domain.Track, now time.Time) {
	d.track = &track
	d.status = Loaded
	d.bpm = track.BPM
	d.setPosition(0, now)
}

func (d *deck) play(now time.Time) {
	d.setPosition(d.position(now), now)
	d.status = Playing
}

func (d *deck) pause(now time.Time) {
	d.setPosition(d.position(now), now)
	d.status = Paused
}

func (d *deck) eject() {
	*d = deck{slot: d.slot, volume: d.volume}
}

func (d *deck) duration() int64 {
	if d.track == nil {
		return 0
	}
	return d.track.DurationMs
}

// beatOffset is where the first beat of the loaded track sits.
func (d *deck) beatOffset() int64 {
	if d.track == nil {
		return 0
	}
	return d.track.BeatOffsetMs
}

func (d *deck) state(now time.Time) State {
	s := State{
		Slot:       d.slot,
		Status:     d.status,
		IsPlaying:  d.status == Playing,
		Volume:     d.volume,
		PositionMs: d.position(now),
		DurationMs: d.duration(),
	}
	if d.track != nil {
		t := *d.track
		s.Track = &t
	}
	if d.bpm != nil {
		b := *d.bpm
		s.EstimatedBPM = &b
	}
	return s
}
