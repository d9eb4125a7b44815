package deck

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"room-sync/contract"
	"room-sync/domain"
	"room-sync/errors"

	"github.com/samber/lo"
)

// SyncResult describes a completed sync. Fallback is ErrSyncUnavailable when only
// the position could be copied.
type SyncResult struct {
	Reference int
	Target    int
	SeekMs    int64
	BPM       float64
	TargetBPM float64
	Fallback  error
}

func (r SyncResult) Approximate() bool {
	return r.Fallback != nil
}

// Engine owns the decks of one DJ console. Commands are serialized; a command that
// fails at the player leaves the local deck state untouched.
type Engine struct {
	log       *slog.Logger
	player    contract.DeckPlayer
	estimator contract.TempoEstimator
	now       func() time.Time

	mu    sync.Mutex
	decks []*deck
}

func NewEngine(log *slog.Logger, player contract.DeckPlayer, estimator contract.TempoEstimator) *Engine {
	return &Engine{log: log, player: player, estimator: estimator, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Configure sizes the console from room settings and the effective tier policy.
// Decks beyond the new count are ejected, playing ones paused at the player first.
// A deck the player fails to pause is kept, along with every deck before it.
func (e *Engine) Configure(ctx context.Context, settings domain.RoomSettings, policy domain.TierSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	if settings.DJMode && policy.DJModeAvailable {
		count = min(max(settings.DJPlayers, 0), domain.MaxDJPlayers)
	}
	for len(e.decks) < count {
		e.decks = append(e.decks, newDeck(len(e.decks)))
	}
	for len(e.decks) > count {
		last := e.decks[len(e.decks)-1]
		if err := e.eject(ctx, last); err != nil {
			return err
		}
		e.log.Debug("Deck removed", "slot", last.slot)
		e.decks = e.decks[:len(e.decks)-1]
	}
	if count == 0 {
		return errors.ErrDJModeDisabled
	}
	return nil
}

func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.decks)
}

func (e *Engine) States() []State {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	return lo.Map(e.decks, func(d *deck, _ int) State { return d.state(now) })
}

func (e *Engine) State(slot int) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(slot)
	if err != nil {
		return State{}, err
	}
	return d.state(e.now()), nil
}

func (e *Engine) get(slot int) (*deck, error) {
	if slot < 0 || slot >= len(e.decks) {
		return nil, fmt.Errorf("%w: %d of %d", errors.ErrInvalidDeck, slot, len(e.decks))
	}
	return e.decks[slot], nil
}

func (e *Engine) getLoaded(slot int) (*deck, error) {
	d, err := e.get(slot)
	if err != nil {
		return nil, err
	}
	if !d.loaded() {
		return nil, fmt.Errorf("%w: deck %d", errors.ErrDeckEmpty, slot)
	}
	return d, nil
}

func (e *Engine) Load(ctx context.Context, slot int, track domain.Track) error {
	if err := domain.ValidateTrack(track); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(slot)
	if err != nil {
		return err
	}
	if err := e.player.Load(ctx, slot, track); err != nil {
		return fmt.Errorf("load deck %d: %w", slot, err)
	}
	d.load(track, e.now())
	return nil
}

func (e *Engine) Play(ctx context.Context, slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.getLoaded(slot)
	if err != nil {
		return err
	}
	if d.status == Playing {
		return nil
	}
	if err := e.player.Play(ctx, slot); err != nil {
		return fmt.Errorf("play deck %d: %w", slot, err)
	}
	d.play(e.now())
	return nil
}

func (e *Engine) Pause(ctx context.Context, slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.getLoaded(slot)
	if err != nil {
		return err
	}
	if d.status != Playing {
		return nil
	}
	if err := e.player.Pause(ctx, slot); err != nil {
		return fmt.Errorf("pause deck %d: %w", slot, err)
	}
	d.pause(e.now())
	return nil
}

// Seek moves a deck, clamped to the track.
func (e *Engine) Seek(ctx context.Context, slot int, positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.getLoaded(slot)
	if err != nil {
		return err
	}
	return e.seek(ctx, d, positionMs)
}

func (e *Engine) seek(ctx context.Context, d *deck, positionMs int64) error {
	pos := clamp(positionMs, d.duration())
	if err := e.player.Seek(ctx, d.slot, pos); err != nil {
		return fmt.Errorf("seek deck %d: %w", d.slot, err)
	}
	d.setPosition(pos, e.now())
	return nil
}

func (e *Engine) SetVolume(ctx context.Context, slot int, volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("%w: %v", errors.ErrInvalidVolume, volume)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(slot)
	if err != nil {
		return err
	}
	if err := e.player.SetVolume(ctx, slot, volume); err != nil {
		return fmt.Errorf("set volume deck %d: %w", slot, err)
	}
	d.volume = volume
	return nil
}

// Eject stops the deck if needed and empties it. The volume is kept.
func (e *Engine) Eject(ctx context.Context, slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(slot)
	if err != nil {
		return err
	}
	return e.eject(ctx, d)
}

func (e *Engine) eject(ctx context.Context, d *deck) error {
	if d.status == Playing {
		if err := e.player.Pause(ctx, d.slot); err != nil {
			return fmt.Errorf("eject deck %d: %w", d.slot, err)
		}
	}
	d.eject()
	return nil
}

// ReportPosition corrects the local position with what the player measured.
func (e *Engine) ReportPosition(slot int, positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.getLoaded(slot)
	if err != nil {
		return err
	}
	d.setPosition(clamp(positionMs, d.duration()), e.now())
	return nil
}

// Analyze estimates the tempo of the loaded track. The estimate is dropped if the
// deck was reloaded meanwhile.
func (e *Engine) Analyze(ctx context.Context, slot int) (float64, error) {
	e.mu.Lock()
	d, err := e.getLoaded(slot)
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	track := *d.track
	e.mu.Unlock()

	bpm, err := e.estimator.EstimateBPM(ctx, track)
	if err != nil {
		e.log.Warn("Tempo estimation failed", "slot", slot, "track_id", track.ID, "error", err)
		return 0, fmt.Errorf("%w: %v", errors.ErrSyncUnavailable, err)
	}
	if bpm <= 0 {
		return 0, fmt.Errorf("%w: estimated %v bpm", errors.ErrSyncUnavailable, bpm)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if d.track == nil || d.track.ID != track.ID {
		return bpm, nil
	}
	d.bpm = lo.ToPtr(bpm)
	e.log.Debug("Tempo estimated", "slot", slot, "track_id", track.ID, "bpm", bpm)
	return bpm, nil
}

// Sync seeks deck b so that its beat grid lines up with deck a at a's current position.
// Deck a never moves. Without a tempo on both decks, b gets a's position and the result
// carries ErrSyncUnavailable.
func (e *Engine) Sync(ctx context.Context, a, b int) (SyncResult, error) {
	if a == b {
		return SyncResult{}, fmt.Errorf("%w: %d", errors.ErrSameDeck, a)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	da, errA := e.get(a)
	db, errB := e.get(b)
	if errA != nil {
		return SyncResult{}, errA
	}
	if errB != nil {
		return SyncResult{}, errB
	}
	if !da.loaded() || !db.loaded() {
		return SyncResult{}, errors.ErrTracksRequired
	}

	ref := da.position(e.now())
	res := SyncResult{Reference: a, Target: b}
	if da.bpm != nil && db.bpm != nil && *da.bpm > 0 && *db.bpm > 0 {
		res.BPM, res.TargetBPM = *da.bpm, *db.bpm
		res.SeekMs = alignedPosition(
			beatGrid{bpm: *da.bpm, offsetMs: da.beatOffset()}, ref,
			beatGrid{bpm: *db.bpm, offsetMs: db.beatOffset()},
		)
	} else {
		res.SeekMs = ref
		res.Fallback = errors.ErrSyncUnavailable
	}
	res.SeekMs = clamp(res.SeekMs, db.duration())

	if err := e.seek(ctx, db, res.SeekMs); err != nil {
		return SyncResult{}, err
	}
	e.log.Debug("Decks synced", "reference", a, "target", b, "seek_ms", res.SeekMs, "approximate", res.Approximate())
	return res, nil
}
