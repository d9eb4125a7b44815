package session

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const roomID = domain.RoomID("room-1")

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newLoadingMachine(t *testing.T) *Machine {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	m := NewMachine(log, roomID, "alice", 5*time.Second)
	require.True(t, m.Begin().Changed)
	return m
}

func track(id string) domain.Track {
	return domain.Track{ID: id, Title: "Song " + id, DurationMs: 180_000, AddedBy: "bob"}
}

func evt(t event.Type, payload any, at time.Time) event.Event {
	e := event.New(t, roomID, payload)
	e.ReceivedAt = at
	return e
}

func queueIDs(s domain.RoomState) []string {
	return lo.Map(s.Queue, func(t domain.Track, _ int) string { return t.ID })
}

func TestMachine_Begin_MovesToLoading(t *testing.T) {
	req := require.New(t)
	m := NewMachine(logs.GetLoggerFromLevel(slog.LevelDebug), roomID, "alice", time.Second)
	req.Equal(domain.Uninitialized, m.Phase())

	// Events before joining are ignored
	out := m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0)
	req.False(out.Changed)

	m.Begin()
	req.Equal(domain.Loading, m.Phase())
	req.Equal(domain.Connecting, m.State().Connection)
}

func TestMachine_FirstSnapshot_GoesLive(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)

	// Given a snapshot whose queue repeats the current track
	cur := track("t0")
	out := m.Apply(evt(event.RoomStateType, event.RoomSnapshot{
		Queue:        []domain.Track{track("t1"), cur, track("t1"), track("t2")},
		CurrentTrack: &cur,
		IsPlaying:    true,
		PositionMs:   -20,
		Users:        []domain.RoomUser{{UserID: "bob"}},
		IsOwner:      true,
	}, t0), t0)

	// Then the session is live and the queue is normalized
	req.True(out.Changed)
	req.Equal(domain.Live, m.Phase())
	st := m.State()
	req.Equal([]string{"t1", "t2"}, queueIDs(st))
	req.Equal("t0", st.CurrentTrack.ID)
	req.Equal(int64(0), st.PositionMs)
	req.Equal(int64(180_000), st.DurationMs)
	req.Equal(domain.Connected, st.Connection)
	req.False(st.Stale)

	// And the viewer role from the snapshot is kept
	me, ok := st.User("alice")
	req.True(ok)
	req.True(me.IsOwner)
}

func TestMachine_TrackRemovedThenStaleAdd_StaysRemoved(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t1"), track("t2")}}, t0), t0)

	// When t1 is removed and a stale add of t1 is delivered afterwards
	m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{TrackID: "t1"}, t0), t0)
	out := m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0.Add(time.Second)), t0.Add(time.Second))

	// Then t1 is not reintroduced
	req.False(out.Changed)
	req.Equal([]string{"t2"}, queueIDs(m.State()))
}

func TestMachine_Tombstone_ConsumedOnceAndExpires(t *testing.T) {
	t.Run("a deliberate re-add after the suppressed one is applied", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t1")}}, t0), t0)

		m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{TrackID: "t1"}, t0), t0)
		m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0.Add(time.Second))
		out := m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0.Add(2*time.Second))

		req.True(out.Changed)
		req.Equal([]string{"t1"}, queueIDs(m.State()))
	})

	t.Run("an add after the window is applied", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t1")}}, t0), t0)

		m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{TrackID: "t1"}, t0), t0)
		m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0.Add(6*time.Second))

		req.Equal([]string{"t1"}, queueIDs(m.State()))
	})

	t.Run("a snapshot clears tombstones", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{TrackID: "t1"}, t0), t0)
		m.Apply(evt(event.RoomStateType, event.RoomSnapshot{}, t0), t0)
		m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0.Add(time.Second))

		req.Equal([]string{"t1"}, queueIDs(m.State()))
	})
}

func TestMachine_AddRemoveSequences_NoDuplicatesAndRemovedAbsent(t *testing.T) {
	type step struct {
		add bool
		id  string
	}
	add := func(id string) step { return step{add: true, id: id} }
	rm := func(id string) step { return step{id: id} }

	cases := []struct {
		name    string
		steps   []step
		present bool
	}{
		{"duplicate adds", []step{add("t1"), add("t1"), add("t1")}, true},
		{"add remove", []step{add("t1"), rm("t1")}, false},
		{"add remove stale add", []step{add("t1"), rm("t1"), add("t1")}, false},
		{"remove before add", []step{rm("t1"), add("t1")}, false},
		{"add add remove add", []step{add("t1"), add("t1"), rm("t1"), add("t1")}, false},
		{"remove twice then add", []step{add("t1"), rm("t1"), rm("t1"), add("t1")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			m := newLoadingMachine(t)
			m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t9")}}, t0), t0)

			now := t0
			for _, s := range tc.steps {
				now = now.Add(100 * time.Millisecond)
				if s.add {
					m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track(s.id)}, now), now)
				} else {
					m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{TrackID: s.id}, now), now)
				}
			}

			ids := queueIDs(m.State())
			req.Len(lo.Uniq(ids), len(ids))
			req.Equal(tc.present, lo.Contains(ids, "t1"))
			req.Contains(ids, "t9")
		})
	}
}

func TestMachine_SnapshotTimeout_DegradesWithStoreView(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)

	// Given the store read succeeded
	settings := domain.RoomSettings{AllowQueue: true, DJPlayers: 2, Admins: []string{"carol"}}
	policy := domain.DefaultTierPolicy(domain.TierStandard)
	m.ApplyStore(StoreResult{
		Record: &domain.RoomRecord{RoomID: roomID, CreatorID: "dave", CreatorTier: domain.TierStandard, Settings: settings, UpdatedAt: t0},
		Policy: &policy,
	}, t0)

	// When no snapshot arrives in time
	out := m.SnapshotTimeout()

	// Then the session is degraded, stale and still exposes store settings and policy
	req.True(out.Changed)
	req.Nil(out.Notice)
	req.Equal(domain.Degraded, m.Phase())
	req.Equal(domain.ReasonSnapshotTimeout, m.Reason())
	st := m.State()
	req.True(st.Stale)
	req.Equal(settings, st.Settings)
	req.Equal(policy, st.TierPolicy)
	req.Equal("dave", st.CreatorID)

	// When a snapshot finally arrives, the session goes live
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t1")}}, t0), t0)
	req.Equal(domain.Live, m.Phase())
	req.False(m.State().Stale)
	req.Equal(settings, m.State().Settings)
}

func TestMachine_SnapshotTimeout_WithFailedStore_SurfacesTimeout(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.ApplyStore(StoreResult{Err: fmt.Errorf("connection refused")}, t0)

	out := m.SnapshotTimeout()

	req.Equal(domain.Degraded, m.Phase())
	req.NotNil(out.Notice)
	req.Equal(domain.NoticeTimeout, out.Notice.Kind)
	req.True(errors.Is(out.Notice.Err, errors.ErrTimeout))
	req.Empty(m.State().Queue)
}

func TestMachine_SnapshotTimeout_IgnoredOnceLive(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{}, t0), t0)

	out := m.SnapshotTimeout()

	req.False(out.Changed)
	req.Equal(domain.Live, m.Phase())
}

func TestMachine_ApplyStore_Errors(t *testing.T) {
	t.Run("auth expired is a distinct notice", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		out := m.ApplyStore(StoreResult{Err: fmt.Errorf("%w: jwt", errors.ErrAuthExpired)}, t0)

		req.NotNil(out.Notice)
		req.Equal(domain.NoticeAuthExpired, out.Notice.Kind)
		req.True(errors.Is(out.Notice.Err, errors.ErrAuthExpired))
		req.Equal(domain.Loading, m.Phase())
	})

	t.Run("other failures leave an empty room", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		out := m.ApplyStore(StoreResult{Err: errors.ErrRoomNotFound}, t0)

		req.Equal(domain.NoticeStoreFailed, out.Notice.Kind)
		req.Empty(m.State().Queue)
		req.Equal(domain.DefaultTierPolicy(domain.TierFree), m.State().TierPolicy)
	})
}

func TestMachine_SettingsPrecedence(t *testing.T) {
	storeSettings := domain.RoomSettings{AllowQueue: true, DJPlayers: 2}
	busSettings := domain.RoomSettings{AllowQueue: false, DJPlayers: 4}
	storePolicy := domain.DefaultTierPolicy(domain.TierStandard)
	busPolicy := domain.DefaultTierPolicy(domain.TierRookie)
	record := func(at time.Time) StoreResult {
		return StoreResult{
			Record: &domain.RoomRecord{RoomID: roomID, CreatorTier: domain.TierStandard, Settings: storeSettings, UpdatedAt: at},
			Policy: &storePolicy,
		}
	}
	snapshot := func(at time.Time) event.Event {
		return evt(event.RoomStateType, event.RoomSnapshot{Settings: &busSettings, TierSettings: &busPolicy, ServerTime: at}, at)
	}

	t.Run("older snapshot keeps store settings", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.ApplyStore(record(t0), t0)
		m.Apply(snapshot(t0.Add(-time.Minute)), t0)

		req.Equal(domain.Live, m.Phase())
		req.Equal(storeSettings, m.State().Settings)
		req.Equal(storePolicy, m.State().TierPolicy)
	})

	t.Run("snapshot without server time keeps store settings", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.ApplyStore(record(t0), t0)
		m.Apply(snapshot(time.Time{}), t0)

		req.Equal(storeSettings, m.State().Settings)
	})

	t.Run("strictly newer snapshot wins", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.ApplyStore(record(t0), t0)
		m.Apply(snapshot(t0.Add(time.Second)), t0)

		req.Equal(busSettings, m.State().Settings)
		req.Equal(busPolicy, m.State().TierPolicy)
	})

	t.Run("store arriving after the snapshot wins only when newer", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(snapshot(t0), t0)
		m.ApplyStore(record(t0.Add(-time.Second)), t0)
		req.Equal(busSettings, m.State().Settings)

		m.ApplyStore(record(t0.Add(time.Second)), t0)
		req.Equal(storeSettings, m.State().Settings)
	})

	t.Run("settings patches apply on top", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.ApplyStore(record(t0), t0)
		m.Apply(evt(event.RoomSettingsUpdatedType, event.SettingsUpdated{
			Patch: domain.SettingsPatch{AllowQueue: lo.ToPtr(false), Admins: []string{"carol"}},
		}, t0.Add(time.Second)), t0.Add(time.Second))

		st := m.State()
		req.False(st.Settings.AllowQueue)
		req.Equal(2, st.Settings.DJPlayers)
		req.Equal([]string{"carol"}, st.Settings.Admins)

		// An older store row does not undo the patch
		m.ApplyStore(record(t0), t0)
		req.False(m.State().Settings.AllowQueue)
	})

	t.Run("invalid patch is rejected", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		out := m.Apply(evt(event.RoomSettingsUpdatedType, event.SettingsUpdated{
			Patch: domain.SettingsPatch{DJPlayers: lo.ToPtr(9)},
		}, t0), t0)

		req.False(out.Changed)
		req.Equal(0, m.State().Settings.DJPlayers)
	})
}

func TestMachine_OutOfDateSnapshot_Dropped(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("new")}, ServerTime: t0}, t0), t0)

	out := m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("old")}, ServerTime: t0.Add(-time.Second)}, t0), t0)

	req.False(out.Changed)
	req.Equal([]string{"new"}, queueIDs(m.State()))
}

func TestMachine_BoostForcesHighestPolicy(t *testing.T) {
	tiers := []domain.Tier{domain.TierFree, domain.TierRookie, domain.TierStandard, domain.TierPro}
	for _, tier := range tiers {
		t.Run(string(tier), func(t *testing.T) {
			req := require.New(t)
			m := newLoadingMachine(t)
			m.Apply(evt(event.RoomStateType, event.RoomSnapshot{TierSettings: lo.ToPtr(domain.DefaultTierPolicy(tier))}, t0), t0)

			m.Apply(evt(event.BoostActivatedType, event.BoostActivated{
				Boost: domain.Boost{ID: "b1", ExpiresAt: t0.Add(time.Hour), PurchasedBy: "bob"},
			}, t0), t0)

			effective := m.State().EffectivePolicy(t0.Add(time.Minute))
			req.True(effective.Unlimited())
			req.False(effective.AdsEnabled)

			// After expiry the creator tier applies again
			req.Equal(tier, m.State().EffectivePolicy(t0.Add(2*time.Hour)).Tier)
		})
	}
}

func TestMachine_BoostExpiry(t *testing.T) {
	t.Run("expiry event asks for refetch and resync", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.BoostActivatedType, event.BoostActivated{Boost: domain.Boost{ID: "b1", ExpiresAt: t0.Add(time.Hour)}}, t0), t0)

		out := m.Apply(evt(event.BoostExpiredType, event.BoostExpired{RoomID: roomID}, t0), t0)

		req.True(out.Refetch)
		req.True(out.Resync)
		req.Equal(domain.NoticeBoostExpired, out.Notice.Kind)
		req.Nil(m.State().ActiveBoost)
	})

	t.Run("expiry for another room is ignored", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.BoostActivatedType, event.BoostActivated{Boost: domain.Boost{ID: "b1", ExpiresAt: t0.Add(time.Hour)}}, t0), t0)

		out := m.Apply(evt(event.BoostExpiredType, event.BoostExpired{RoomID: "other"}, t0), t0)

		req.False(out.Changed)
		req.NotNil(m.State().ActiveBoost)
	})

	t.Run("time based expiry", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.BoostActivatedType, event.BoostActivated{Boost: domain.Boost{ID: "b1", ExpiresAt: t0.Add(time.Hour)}}, t0), t0)

		req.False(m.ExpireBoost(t0.Add(time.Minute)).Changed)
		out := m.ExpireBoost(t0.Add(time.Hour))
		req.True(out.Refetch)
		req.Nil(m.State().ActiveBoost)
	})

	t.Run("block persists after expiry", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.BoostActivatedType, event.BoostActivated{Boost: domain.Boost{ID: "b1", ExpiresAt: t0.Add(time.Hour)}}, t0), t0)
		m.Apply(evt(event.PlaybackBlockedType, event.PlaybackBlocked{Block: domain.PlaybackBlock{Reason: "limit"}}, t0), t0)

		m.Apply(evt(event.BoostExpiredType, event.BoostExpired{RoomID: roomID}, t0), t0)

		req.NotNil(m.State().Blocked)
	})
}

func TestMachine_PlaybackBlock_LiftedByServerOnly(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{IsPlaying: true}, t0), t0)

	out := m.Apply(evt(event.PlaybackBlockedType, event.PlaybackBlocked{
		Block: domain.PlaybackBlock{Reason: "free tier limit", SongsPlayed: 5, UserID: "dave", IsOwner: true},
	}, t0), t0)
	req.Equal(domain.NoticePlaybackBlocked, out.Notice.Kind)
	req.NotNil(m.State().Blocked)
	req.False(m.State().IsPlaying)

	// A play event does not lift the block
	m.Apply(evt(event.PlayType, event.Playback{}, t0), t0)
	req.NotNil(m.State().Blocked)

	// A snapshot does
	out = m.Apply(evt(event.RoomStateType, event.RoomSnapshot{}, t0), t0)
	req.Equal(domain.NoticeBlockLifted, out.Notice.Kind)
	req.Nil(m.State().Blocked)
}

func TestMachine_RemoteError(t *testing.T) {
	t.Run("rejection resyncs", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		out := m.Apply(evt(event.ErrorType, event.RemoteError{Message: "queue full"}, t0), t0)

		req.True(out.Resync)
		req.True(errors.Is(out.Notice.Err, errors.ErrRemoteRejected))
		req.Equal("queue full", out.Notice.Message)
	})

	t.Run("blocked error blocks playback", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		out := m.Apply(evt(event.ErrorType, event.RemoteError{Message: "limit", Blocked: true}, t0), t0)

		req.Equal(domain.NoticePlaybackBlocked, out.Notice.Kind)
		req.Equal(t0, m.State().Blocked.BlockedAt)
	})
}

func TestMachine_Disconnect(t *testing.T) {
	t.Run("while loading degrades", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.DisconnectType, event.Disconnected{Reason: "dial"}, t0), t0)

		req.Equal(domain.Degraded, m.Phase())
		req.Equal(domain.ReasonBusUnreachable, m.Reason())
	})

	t.Run("while live keeps the snapshot and resyncs on reconnect", func(t *testing.T) {
		req := require.New(t)
		m := newLoadingMachine(t)
		m.Apply(evt(event.RoomStateType, event.RoomSnapshot{Queue: []domain.Track{track("t1")}}, t0), t0)

		m.Apply(evt(event.DisconnectType, event.Disconnected{}, t0), t0)
		req.Equal(domain.Live, m.Phase())
		req.Equal(domain.Disconnected, m.State().Connection)
		req.Equal([]string{"t1"}, queueIDs(m.State()))

		out := m.Apply(evt(event.ConnectType, event.Connected{}, t0), t0)
		req.True(out.Resync)
		req.Equal(domain.Connected, m.State().Connection)
	})
}

func TestMachine_NextTrack(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	cur := track("t0")
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{
		Queue: []domain.Track{track("t1"), track("t2")}, CurrentTrack: &cur, PositionMs: 4000,
	}, t0), t0)

	next := track("t1")
	m.Apply(evt(event.NextTrackType, event.NextTrack{Track: &next}, t0), t0)

	st := m.State()
	req.Equal("t1", st.CurrentTrack.ID)
	req.Equal([]string{"t2"}, queueIDs(st))
	req.Equal("t0", st.History[0].ID)
	req.Equal(int64(0), st.PositionMs)
	req.True(st.IsPlaying)

	// End of queue
	m.Apply(evt(event.NextTrackType, event.NextTrack{}, t0), t0)
	req.Nil(m.State().CurrentTrack)
	req.False(m.State().IsPlaying)
}

func TestMachine_InvalidPayloads_Ignored(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)

	req.False(m.Apply(evt(event.TrackAddedType, "garbage", t0), t0).Changed)
	req.False(m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: domain.Track{}}, t0), t0).Changed)
	req.False(m.Apply(evt(event.TrackRemovedType, event.TrackRemoved{}, t0), t0).Changed)
	req.False(m.Apply(evt("unknown", nil, t0), t0).Changed)
}

func TestMachine_Close_IsTerminal(t *testing.T) {
	req := require.New(t)
	m := newLoadingMachine(t)
	m.Apply(evt(event.RoomStateType, event.RoomSnapshot{}, t0), t0)

	req.True(m.Close().Changed)
	req.False(m.Close().Changed)
	req.Equal(domain.Closed, m.Phase())

	out := m.Apply(evt(event.TrackAddedType, event.TrackAdded{Track: track("t1")}, t0), t0)
	req.False(out.Changed)
	req.False(m.ApplyStore(StoreResult{}, t0).Changed)
	req.Empty(m.State().Queue)
}

func TestMachine_LogsCarryRoomOnce(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil)).With("room_id", roomID)
	m := NewMachine(log, roomID, "alice", 5*time.Second)
	m.Begin()

	m.SnapshotTimeout()

	line := strings.TrimSpace(buf.String())
	req.Contains(line, "Room session degraded")
	req.Equal(1, strings.Count(line, `"room_id"`))
}
