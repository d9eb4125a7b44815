package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"room-sync/contract"
	"room-sync/domain"
	"room-sync/errors"
)

var _ contract.StoreReader = (*GuardedStore)(nil)

// GuardedStore checks the user's token before every read.
// Any token failure is reported as ErrAuthExpired so the session asks for a new login.
type GuardedStore struct {
	guard *TokenGuard
	next  contract.StoreReader

	mu    sync.RWMutex
	token string
}

func NewGuardedStore(guard *TokenGuard, token string, next contract.StoreReader) *GuardedStore {
	return &GuardedStore{guard: guard, next: next, token: token}
}

// SetToken swaps the token after a re-login.
func (s *GuardedStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *GuardedStore) check() error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if _, err := s.guard.ValidateToken(token); err != nil {
		if errors.Is(err, errors.ErrAuthExpired) {
			return err
		}
		return fmt.Errorf("%w: %v", errors.ErrAuthExpired, err)
	}
	return nil
}

func (s *GuardedStore) GetRoomSettings(ctx context.Context, roomID domain.RoomID) (domain.RoomRecord, error) {
	if err := s.check(); err != nil {
		return domain.RoomRecord{}, err
	}
	return s.next.GetRoomSettings(ctx, roomID)
}

func (s *GuardedStore) GetTierPolicy(ctx context.Context, tier domain.Tier) (domain.TierSettings, error) {
	if err := s.check(); err != nil {
		return domain.TierSettings{}, err
	}
	return s.next.GetTierPolicy(ctx, tier)
}

func (s *GuardedStore) GetActiveBoost(ctx context.Context, roomID domain.RoomID, now time.Time) (*domain.Boost, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.next.GetActiveBoost(ctx, roomID, now)
}
