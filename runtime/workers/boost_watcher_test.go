package workers

import (
	"log/slog"
	"testing"
	"time"

	"room-sync/admission"
	"room-sync/domain"
	"room-sync/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBoostWatcher_RefreshesOnceOnExpiry(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	room := mocks.NewMockRoomView(ctrl)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := domain.NewRoomState(roomID)
	state.ActiveBoost = &domain.Boost{ID: "b1", ExpiresAt: now.Add(time.Minute)}
	room.EXPECT().State().Return(state).AnyTimes()

	watcher := NewBoostWatcher(log, room, admission.NewGate(log), time.Second).
		WithClock(func() time.Time { return now })

	// Given the boost is running, nothing happens
	req.Equal(admission.BoostActive, watcher.Check())

	// When it elapsed, the room is refreshed once
	room.EXPECT().Refresh().Times(1)
	now = now.Add(time.Minute)
	req.Equal(admission.BoostExpired, watcher.Check())
	req.Equal(admission.NoBoost, watcher.Check())
}
