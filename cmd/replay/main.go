// Command replay feeds a capture of websocket frames, one per line, through a fresh room
// session and prints how the view evolved.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"room-sync/admission"
	"room-sync/domain"
	"room-sync/domain/event"
	"room-sync/infrastructure/socket"
	"room-sync/session"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	File            string        `envconfig:"REPLAY_FILE" required:"true"`
	RoomID          string        `envconfig:"ROOM_ID" required:"true"`
	UserID          string        `envconfig:"USER_ID" required:"true"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"ERROR"`
	TombstoneWindow time.Duration `envconfig:"TOMBSTONE_WINDOW" default:"5s"`
	// REPLAY_COLOURS enables colorized phases
	Colours bool `envconfig:"REPLAY_COLOURS" default:"true"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	f, err := os.Open(cfg.File)
	if err != nil {
		return err
	}
	defer f.Close()

	summary, err := replay(logs.GetLoggerFromString(cfg.LogLevel), cfg, f, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d frames, %d applied, %d skipped, final phase %s\n",
		summary.Frames, summary.Applied, summary.Skipped, summary.Final.Phase)
	return nil
}

// Summary is the outcome of a replay.
type Summary struct {
	Frames   int
	Applied  int
	Skipped  int
	AdBreaks int
	Final    domain.Update
}

// replay applies every frame in order. Frames carry their own issuedAt time; frames without one
// reuse the previous time. Undecodable lines are counted and skipped.
func replay(log *slog.Logger, cfg Config, in io.Reader, out io.Writer) (Summary, error) {
	var summary Summary
	log = log.With("room_id", cfg.RoomID)
	machine := session.NewMachine(log, domain.RoomID(cfg.RoomID), cfg.UserID, cfg.TombstoneWindow)
	gate := admission.NewGate(log)
	machine.Begin()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "At", "Event", "Phase", "Queue", "Track", "Playing", "Notice"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	var now time.Time
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		summary.Frames++

		evt, err := socket.Decode(line)
		if err != nil {
			log.Warn("Frame skipped", "line", summary.Frames, "error", err)
			summary.Skipped++
			continue
		}
		if at := issuedAt(line); !at.IsZero() {
			now = at
		}
		if now.IsZero() {
			now = evt.ReceivedAt
		}

		outcome := machine.Apply(evt, now)
		summary.Applied++
		notice := outcome.Notice
		if evt.Type == event.NextTrackType && machine.State().CurrentTrack != nil {
			if gate.OnTrackAdvance(machine.State()).ShowAd {
				summary.AdBreaks++
				notice = &domain.Notice{Kind: domain.NoticeAdBreak}
				gate.DismissAd(machine.State())
			}
		}
		u := machine.Update(string(evt.Type), notice)
		table.Append(row(cfg, summary.Frames, now, u))
	}
	if err := scanner.Err(); err != nil {
		return summary, err
	}
	table.Render()
	summary.Final = machine.Update("replay-end", nil)
	return summary, nil
}

func issuedAt(line []byte) time.Time {
	var env socket.Envelope
	if err := json.Unmarshal(line, &env); err != nil || env.IssuedAt == nil {
		return time.Time{}
	}
	return *env.IssuedAt
}

func row(cfg Config, n int, at time.Time, u domain.Update) []string {
	track := "-"
	if u.State.CurrentTrack != nil {
		track = u.State.CurrentTrack.Title
		if track == "" {
			track = u.State.CurrentTrack.ID
		}
	}
	notice := ""
	if u.Notice != nil {
		notice = string(u.Notice.Kind)
	}
	return []string{
		strconv.Itoa(n),
		at.Format("15:04:05.000"),
		u.Cause,
		phase(cfg, u),
		strconv.Itoa(len(u.State.Queue)),
		track,
		strconv.FormatBool(u.State.IsPlaying),
		notice,
	}
}

func phase(cfg Config, u domain.Update) string {
	text := u.Phase.String()
	if u.Reason != domain.NoReason {
		text += " (" + string(u.Reason) + ")"
	}
	if !cfg.Colours {
		return text
	}
	switch u.Phase {
	case domain.Live:
		return color.Green.Render(text)
	case domain.Degraded:
		return color.Yellow.Render(text)
	case domain.Closed:
		return color.Red.Render(text)
	default:
		return color.Gray.Render(text)
	}
}
