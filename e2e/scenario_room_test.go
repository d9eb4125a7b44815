package e2e

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"room-sync/auth"
	"room-sync/domain"
	"room-sync/infrastructure/socket"
	"room-sync/repositories"
	"room-sync/runtime"
	"room-sync/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	roomID        = domain.RoomID("room-1")
	healthService = "room-sync.Room"
	snapshotFrame = `{"type":"roomState","roomId":"room-1","payload":{
		"queue":[{"id":"t1","title":"One","duration":180000}],
		"creatorId":"dave",
		"settings":{"allowQueue":true,"allowControls":true},
		"tierSettings":{"tier":"free","queueLimit":10,"adsEnabled":true},
		"serverTime":"2026-03-01T12:00:00Z"}}`
)

// roomServer plays the realtime server: it answers join-room with a snapshot and records commands.
type roomServer struct {
	*httptest.Server
	inbound  chan socket.Envelope
	outbound chan string
	done     chan struct{}
}

func newRoomServer() *roomServer {
	s := &roomServer{
		inbound:  make(chan socket.Envelope, 32),
		outbound: make(chan string, 32),
		done:     make(chan struct{}),
	}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var env socket.Envelope
				if json.Unmarshal(data, &env) != nil {
					continue
				}
				if env.Type == string(domain.JoinRoomCommand) {
					s.outbound <- snapshotFrame
				}
				s.inbound <- env
			}
		}()
		for {
			select {
			case frame := <-s.outbound:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
			case <-s.done:
				return
			}
		}
	}))
	return s
}

// waitCommand returns the next inbound command of type t, skipping others.
func (s *roomServer) waitCommand(t domain.CommandType) (socket.Envelope, bool) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case env := <-s.inbound:
			if env.Type == string(t) {
				return env, true
			}
		case <-timeout:
			return socket.Envelope{}, false
		}
	}
}

type testRoomSuite struct {
	BaseGrpcSuite
	server       *roomServer
	db           *badger.DB
	grpcServer   *grpc.Server
	healthAddr   string
	orchestrator *runtime.Orchestrator
	cancel       context.CancelFunc
}

func TestRoomSuite(t *testing.T) {
	suite.Run(t, &testRoomSuite{})
}

func (s *testRoomSuite) SetupTest() {
	req := s.Require()
	log := logs.GetLoggerFromString(s.Config.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Store
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	s.db = db
	repository := repositories.NewRoomRepository(db, log)
	req.NoError(repository.SeedTierPolicies())
	req.NoError(repository.SaveRoom(domain.RoomRecord{
		RoomID:      roomID,
		CreatorID:   "dave",
		CreatorTier: domain.TierFree,
		Settings:    domain.RoomSettings{AllowQueue: true, AllowControls: true},
	}))
	guard := auth.NewTokenGuard("e2e-secret")
	token, err := guard.GenerateToken("alice", time.Hour)
	req.NoError(err)
	store := auth.NewGuardedStore(guard, token, repository)

	// Realtime server and bus
	s.server = newRoomServer()
	cfg := socket.DefaultConfig("ws"+strings.TrimPrefix(s.server.URL, "http"), token)
	cfg.ReconnectInterval = 50 * time.Millisecond
	bus := socket.NewBus(log, cfg)
	go func() { _ = bus.Run(ctx) }()

	// Health
	healthServer := health.NewServer()
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, healthServer)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	s.healthAddr = listener.Addr().String()
	go func() { _ = s.grpcServer.Serve(listener) }()

	// Room
	s.orchestrator = runtime.NewOrchestrator(log, "alice", bus, store, runtime.NewRegistry(), runtime.DefaultConfig())
	s.orchestrator.Add(sink.NewLogSink(log), sink.NewHealthSink(healthServer, healthService))
	_, err = s.orchestrator.Join(ctx, roomID)
	req.NoError(err)
}

func (s *testRoomSuite) TearDownTest() {
	s.orchestrator.Stop()
	s.cancel()
	s.grpcServer.Stop()
	close(s.server.done)
	s.server.Close()
	_ = s.db.Close()
}

func (s *testRoomSuite) TestListenerGoesLiveAndGatesIntents() {
	s.Run("Step 1: room reports SERVING once the snapshot is applied", func() {
		s.WithHealth("Health check", s.healthAddr, func(ctx context.Context, client healthpb.HealthClient) {
			s.Require().Eventually(func() bool {
				resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: healthService})
				return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
			}, 5*time.Second, 50*time.Millisecond)
		})
	})

	s.Run("Step 2: an admitted track is sent to the server", func() {
		err := s.orchestrator.AddTrack(context.Background(), roomID, domain.Track{ID: "t2", Title: "Two"})
		s.Require().NoError(err)

		env, ok := s.server.waitCommand(domain.AddTrackCommand)
		s.Require().True(ok, "add-track never reached the server")
		s.Require().Equal("alice", env.UserID)
		s.Require().Contains(string(env.Payload), `"id":"t2"`)
	})

	s.Run("Step 3: a track advance on the free tier triggers an ad break", func() {
		s.server.outbound <- `{"type":"nextTrack","roomId":"room-1","payload":{"track":{"id":"t1","title":"One"}}}`

		_, ok := s.server.waitCommand(domain.PauseCommand)
		s.Require().True(ok, "ad break never paused playback")

		room, err := s.orchestrator.Room(roomID)
		s.Require().NoError(err)
		s.Require().True(room.Gate.AdPending())
	})
}
