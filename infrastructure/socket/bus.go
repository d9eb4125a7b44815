// Package socket is the websocket event bus: one connection carrying the events of every
// subscribed room in, and commands out.
package socket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"room-sync/contract"
	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/errors"

	"github.com/gorilla/websocket"
)

var (
	_ contract.EventBus = (*Bus)(nil)
	_ contract.Worker   = (*Bus)(nil)
)

type Config struct {
	URL               string
	Token             string
	WriteWait         time.Duration
	PongWait          time.Duration
	PingInterval      time.Duration
	ReconnectInterval time.Duration
	MaxMessageSize    int64
	BufferSize        int
}

func DefaultConfig(url, token string) Config {
	return Config{
		URL:               url,
		Token:             token,
		WriteWait:         10 * time.Second,
		PongWait:          60 * time.Second,
		PingInterval:      54 * time.Second,
		ReconnectInterval: 2 * time.Second,
		MaxMessageSize:    1 << 20,
		BufferSize:        256,
	}
}

type subscription struct {
	events chan event.Event
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) cancel() {
	s.once.Do(func() { close(s.done) })
}

// Bus dials the server, keeps the connection alive and redials after a drop.
// Connect and disconnect are delivered to every subscriber as events.
type Bus struct {
	log    *slog.Logger
	cfg    Config
	dialer *websocket.Dialer

	mu        sync.Mutex
	subs      map[domain.RoomID]map[*subscription]struct{}
	send      chan []byte
	connected bool
	closed    bool
}

func NewBus(log *slog.Logger, cfg Config) *Bus {
	return &Bus{
		log:    log,
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		subs:   make(map[domain.RoomID]map[*subscription]struct{}),
		send:   make(chan []byte, cfg.BufferSize),
	}
}

// Subscribe returns the events of roomID in delivery order. The channel is closed when the bus stops.
func (b *Bus) Subscribe(roomID domain.RoomID) (<-chan event.Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, fmt.Errorf("%w: bus stopped", errors.ErrBusUnavailable)
	}
	sub := &subscription{
		events: make(chan event.Event, b.cfg.BufferSize),
		done:   make(chan struct{}),
	}
	if _, ok := b.subs[roomID]; !ok {
		b.subs[roomID] = make(map[*subscription]struct{})
	}
	b.subs[roomID][sub] = struct{}{}

	unsubscribe := func() {
		sub.cancel()
		b.mu.Lock()
		defer b.mu.Unlock()
		if members, ok := b.subs[roomID]; ok {
			delete(members, sub)
			if len(members) == 0 {
				delete(b.subs, roomID)
			}
		}
	}
	return sub.events, unsubscribe, nil
}

// Emit queues a command for the writer. Commands are fire-and-forget.
func (b *Bus) Emit(ctx context.Context, cmd domain.Command) error {
	b.mu.Lock()
	connected := b.connected
	b.mu.Unlock()
	if !connected {
		return fmt.Errorf("%w: %s not sent", errors.ErrBusUnavailable, cmd.Type)
	}
	data, err := Encode(cmd)
	if err != nil {
		return err
	}
	select {
	case b.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run keeps a connection open until ctx is done, then closes every subscription.
// A panic leaves subscriptions open so a supervised restart resumes delivery.
func (b *Bus) Run(ctx context.Context) error {
	b.setConnected(false)
	for {
		if err := b.connectAndServe(ctx); err != nil && ctx.Err() == nil {
			b.log.Warn("Event bus connection lost", "error", err)
		}
		select {
		case <-ctx.Done():
			b.shutdown()
			return nil
		case <-time.After(b.cfg.ReconnectInterval):
		}
	}
}

func (b *Bus) connectAndServe(ctx context.Context) error {
	header := http.Header{}
	if b.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+b.cfg.Token)
	}
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, header)
	if err != nil {
		return err
	}
	b.log.Info("Event bus connected", "url", b.cfg.URL)
	b.setConnected(true)
	b.broadcast(ctx, event.ConnectType, event.Connected{})

	connCtx, cancel := context.WithCancel(ctx)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		b.writePump(connCtx, conn)
	}()

	err = b.readPump(connCtx, conn)
	cancel()
	_ = conn.Close()
	<-writerDone

	b.setConnected(false)
	reason := "connection closed"
	if err != nil {
		reason = err.Error()
	}
	b.broadcast(ctx, event.DisconnectType, event.Disconnected{Reason: reason})
	return err
}

func (b *Bus) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(b.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait))
	})

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait))

		evt, err := Decode(data)
		if err != nil {
			b.log.Warn("Inbound frame dropped", "error", err)
			continue
		}
		b.dispatch(ctx, evt)
	}
}

func (b *Bus) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(b.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-b.send:
			_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.log.Warn("Command write failed", "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// dispatch hands evt to the subscribers of its room, waiting for slow ones.
func (b *Bus) dispatch(ctx context.Context, evt event.Event) {
	for _, sub := range b.subscribers(evt.Room) {
		deliver(ctx, sub, evt)
	}
}

// broadcast sends a connection event to every subscriber, each stamped with its own room.
func (b *Bus) broadcast(ctx context.Context, t event.Type, payload any) {
	b.mu.Lock()
	targets := make(map[*subscription]domain.RoomID)
	for roomID, members := range b.subs {
		for sub := range members {
			targets[sub] = roomID
		}
	}
	b.mu.Unlock()
	for sub, roomID := range targets {
		deliver(ctx, sub, event.New(t, roomID, payload))
	}
}

func deliver(ctx context.Context, sub *subscription, evt event.Event) {
	select {
	case sub.events <- evt:
	case <-sub.done:
	case <-ctx.Done():
	}
}

func (b *Bus) subscribers(roomID domain.RoomID) []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*subscription, 0, len(b.subs[roomID]))
	for sub := range b.subs[roomID] {
		out = append(out, sub)
	}
	return out
}

func (b *Bus) setConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

func (b *Bus) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.connected = false
	for _, members := range b.subs {
		for sub := range members {
			close(sub.events)
		}
	}
	b.subs = make(map[domain.RoomID]map[*subscription]struct{})
	b.log.Info("Event bus stopped")
}
