package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"room-sync/contract"
	"room-sync/domain"
	"room-sync/errors"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.StoreReader = (*RoomRepository)(nil)

// RoomRepository persists rooms, tier policies and boosts in BadgerDB.
// Keys:
//
//	room:{room_id}
//	tier:{tier}
//	boost:{room_id}:{expires_at_padded}:{boost_id}
//
// Boost keys sort by expiry, so the newest boost of a room is the last key of its prefix.
type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

func roomKey(roomID domain.RoomID) []byte {
	return []byte("room:" + string(roomID))
}

func tierKey(tier domain.Tier) []byte {
	return []byte("tier:" + string(tier))
}

func boostPrefix(roomID domain.RoomID) string {
	return fmt.Sprintf("boost:%s:", roomID)
}

func (r *RoomRepository) SaveRoom(record domain.RoomRecord) error {
	if err := domain.ValidateSettings(record.Settings); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	return r.put(roomKey(record.RoomID), record)
}

func (r *RoomRepository) SaveTierPolicy(policy domain.TierSettings) error {
	return r.put(tierKey(policy.Tier), policy)
}

// SeedTierPolicies writes the default policy of every tier that has no row yet.
func (r *RoomRepository) SeedTierPolicies() error {
	return r.db.Update(func(txn *badger.Txn) error {
		for _, policy := range domain.DefaultTierPolicies() {
			_, err := txn.Get(tierKey(policy.Tier))
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			bytes, err := json.Marshal(policy)
			if err != nil {
				return err
			}
			if err := txn.Set(tierKey(policy.Tier), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveBoost records a purchased boost. It expires on its own once ExpiresAt is past.
func (r *RoomRepository) SaveBoost(boost domain.Boost) error {
	key := fmt.Sprintf("%s%019d:%s", boostPrefix(boost.RoomID), boost.ExpiresAt.UnixNano(), boost.ID)
	return r.put([]byte(key), boost)
}

func (r *RoomRepository) GetRoomSettings(ctx context.Context, roomID domain.RoomID) (domain.RoomRecord, error) {
	var record domain.RoomRecord
	if err := ctx.Err(); err != nil {
		return record, err
	}
	err := r.get(roomKey(roomID), &record)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return record, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	return record, err
}

func (r *RoomRepository) GetTierPolicy(ctx context.Context, tier domain.Tier) (domain.TierSettings, error) {
	var policy domain.TierSettings
	if err := ctx.Err(); err != nil {
		return policy, err
	}
	err := r.get(tierKey(tier), &policy)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return policy, fmt.Errorf("%w: %s", errors.ErrTierNotFound, tier)
	}
	return policy, err
}

// GetActiveBoost returns the boost of the room with the latest expiry if it is still
// running at now, nil otherwise.
func (r *RoomRepository) GetActiveBoost(ctx context.Context, roomID domain.RoomID, now time.Time) (*domain.Boost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var latest []byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(boostPrefix(roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts past the last possible key of the prefix
		it.Seek(append(prefix, 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		v, err := it.Item().ValueCopy(nil)
		latest = v
		return err
	})
	if err != nil || latest == nil {
		return nil, err
	}

	var boost domain.Boost
	if err := json.Unmarshal(latest, &boost); err != nil {
		return nil, err
	}
	if !boost.ActiveAt(now) {
		r.log.Debug("Latest boost already expired", "room_id", roomID, "boost_id", boost.ID)
		return nil, nil
	}
	return &boost, nil
}

func (r *RoomRepository) put(key []byte, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
}

func (r *RoomRepository) get(key []byte, out any) error {
	return r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}
