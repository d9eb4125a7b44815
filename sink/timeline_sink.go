package sink

import (
	"context"
	"sync"

	"room-sync/domain"
)

// Timeline keeps the last update of a room and counts notices by kind.
type Timeline struct {
	mu      sync.Mutex
	last    domain.Update
	updates int
	notices map[domain.NoticeKind]int
	played  []string
}

func NewTimeline() *Timeline {
	return &Timeline{notices: make(map[domain.NoticeKind]int)}
}

func (t *Timeline) Consume(_ context.Context, u domain.Update) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	previous := t.last.State.CurrentTrack
	t.last = u
	t.updates++
	if u.Notice != nil {
		t.notices[u.Notice.Kind]++
	}
	current := u.State.CurrentTrack
	if current != nil && (previous == nil || previous.ID != current.ID) {
		t.played = append(t.played, current.ID)
	}
	return nil
}

// Stats is the debug view of the timeline.
func (t *Timeline) Stats() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	notices := make(map[string]int, len(t.notices))
	for kind, n := range t.notices {
		notices[string(kind)] = n
	}
	stats := map[string]any{
		"phase":   t.last.Phase.String(),
		"updates": t.updates,
		"queue":   len(t.last.State.Queue),
		"playing": t.last.State.IsPlaying,
		"notices": notices,
		"played":  append([]string(nil), t.played...),
	}
	if t.last.Reason != domain.NoReason {
		stats["reason"] = string(t.last.Reason)
	}
	return stats
}
