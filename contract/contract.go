//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"room-sync/domain"
	"room-sync/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventBus is the realtime transport. Events of a room arrive in delivery order on the
// returned channel until unsubscribe is called or the bus shuts down.
type EventBus interface {
	Subscribe(roomID domain.RoomID) (events <-chan event.Event, unsubscribe func(), err error)
	Emit(ctx context.Context, cmd domain.Command) error
}

// StoreReader reads persisted rows on demand. It has no push semantics.
type StoreReader interface {
	GetRoomSettings(ctx context.Context, roomID domain.RoomID) (domain.RoomRecord, error)
	GetTierPolicy(ctx context.Context, tier domain.Tier) (domain.TierSettings, error)
	GetActiveBoost(ctx context.Context, roomID domain.RoomID, now time.Time) (*domain.Boost, error)
}

// StateSink observes a room. Consume must honour ctx.
type StateSink interface {
	Consume(ctx context.Context, update domain.Update) error
}

type IRegistry interface {
	GetSinksForRoom(roomID domain.RoomID) []StateSink
	Subscribe(observerID string, roomID domain.RoomID, sink StateSink)
	Unsubscribe(observerID string, roomID domain.RoomID)
}

// TempoEstimator analyses audio content. It is slow and may fail.
type TempoEstimator interface {
	EstimateBPM(ctx context.Context, track domain.Track) (float64, error)
}

// DeckPlayer drives the audio output of a deck slot.
type DeckPlayer interface {
	Load(ctx context.Context, slot int, track domain.Track) error
	Play(ctx context.Context, slot int) error
	Pause(ctx context.Context, slot int) error
	Seek(ctx context.Context, slot int, positionMs int64) error
	SetVolume(ctx context.Context, slot int, volume float64) error
}

// RoomView is the read side of a running room session.
type RoomView interface {
	State() domain.RoomState
	Refresh()
}
