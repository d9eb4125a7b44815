package domain

// Phase is the lifecycle step of a room session.
// Degraded always comes with a DegradedReason; other phases carry none.
type Phase int

const (
	Uninitialized Phase = iota
	Loading
	Live
	Degraded
	Closed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Live:
		return "live"
	case Degraded:
		return "degraded"
	case Closed:
		return "closed"
	default:
		return "uninitialized"
	}
}

type DegradedReason string

const (
	NoReason              DegradedReason = ""
	ReasonSnapshotTimeout DegradedReason = "snapshot-timeout"
	ReasonBusUnreachable  DegradedReason = "bus-unreachable"
)

type NoticeKind string

const (
	NoticeAuthExpired     NoticeKind = "auth-expired"
	NoticeTimeout         NoticeKind = "timeout"
	NoticeStoreFailed     NoticeKind = "store-failed"
	NoticeRemoteRejected  NoticeKind = "remote-rejected"
	NoticePlaybackBlocked NoticeKind = "playback-blocked"
	NoticeBlockLifted     NoticeKind = "block-lifted"
	NoticeAdBreak         NoticeKind = "ad-break"
	NoticeAdDismissed     NoticeKind = "ad-dismissed"
	NoticeBoostExpired    NoticeKind = "boost-expired"
)

type Notice struct {
	Kind    NoticeKind
	Err     error
	Message string
}

// Update is what observers receive: a copy of the state after a change,
// the event type that caused it and an optional notice.
type Update struct {
	State  RoomState
	Phase  Phase
	Reason DegradedReason
	Cause  string
	Notice *Notice
}
