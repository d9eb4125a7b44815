package sink

import (
	"context"

	"room-sync/domain"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthSink reports a room as SERVING only while its session is Live.
type HealthSink struct {
	server  *health.Server
	service string
}

func NewHealthSink(server *health.Server, service string) HealthSink {
	server.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return HealthSink{server: server, service: service}
}

func (h HealthSink) Consume(_ context.Context, u domain.Update) error {
	h.server.SetServingStatus(h.service, StatusOf(u.Phase))
	return nil
}

func StatusOf(phase domain.Phase) healthpb.HealthCheckResponse_ServingStatus {
	if phase == domain.Live {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
