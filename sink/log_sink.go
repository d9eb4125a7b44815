package sink

import (
	"context"
	"log/slog"

	"room-sync/contract"
	"room-sync/domain"
)

var _ contract.StateSink = LogSink{}

// LogSink writes one structured line per update.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Consume(_ context.Context, u domain.Update) error {
	attrs := []any{
		"room_id", u.State.RoomID,
		"phase", u.Phase,
		"cause", u.Cause,
		"queue", len(u.State.Queue),
		"playing", u.State.IsPlaying,
	}
	if u.Reason != domain.NoReason {
		attrs = append(attrs, "reason", u.Reason)
	}
	if u.State.CurrentTrack != nil {
		attrs = append(attrs, "track", u.State.CurrentTrack.Title)
	}
	if u.Notice == nil {
		l.log.Debug("Room updated", attrs...)
		return nil
	}
	attrs = append(attrs, "notice", u.Notice.Kind)
	if u.Notice.Err != nil {
		attrs = append(attrs, "error", u.Notice.Err)
		l.log.Warn("Room notice", attrs...)
		return nil
	}
	l.log.Info("Room notice", attrs...)
	return nil
}
