package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vcwarden/internal/models"
	"vcwarden/internal/telemetry"
)

// Kind classifies a voice transition.
type Kind int

const (
	KindNone Kind = iota // not a channel transition (mute/deafen toggle)
	KindJoin
	KindLeave
	KindMove
)

// Event is a single voice-state transition as delivered by the gateway.
// PrevChannelID and ChannelID are empty when absent.
type Event struct {
	UserID        string
	GuildID       string
	PrevChannelID string
	ChannelID     string
}

// Classify derives the transition kind from the presence or absence of
// the previous and current channel.
func (e Event) Classify() Kind {
	switch {
	case e.PrevChannelID == "" && e.ChannelID == "":
		return KindNone
	case e.PrevChannelID == e.ChannelID:
		return KindNone
	case e.PrevChannelID == "":
		return KindJoin
	case e.ChannelID == "":
		return KindLeave
	default:
		return KindMove
	}
}

// SessionStore persists accumulated voice seconds.
type SessionStore interface {
	AddVoiceSeconds(ctx context.Context, userID, guildID string, seconds int64) error
}

// SettingsStore resolves per-guild notification settings. A nil result
// with a nil error means the feature is not configured for the guild.
type SettingsStore interface {
	VCPingSettings(ctx context.Context, guildID string) (*models.VCPingSettings, error)
}

// Occupancy resolves how many members are currently in a voice channel.
type Occupancy interface {
	ChannelOccupancy(guildID, channelID string) (int, error)
}

// Notifier renders and delivers the empty-channel notification. Message
// wording and localization live behind this interface, not in the core.
type Notifier interface {
	EmptyChannelNotice(ctx context.Context, settings models.VCPingSettings, userID, voiceChannelID string) error
}

// Processor is the entry point for voice transitions. It serializes
// per-user state through the Tracker and performs all external I/O
// outside the tracker's lock, bounded by IOTimeout. Process never
// returns an error: downstream failures are logged with enough context
// to replay and dropped, so one event's failure cannot stall the feed.
type Processor struct {
	Tracker   *Tracker
	Sessions  SessionStore
	Settings  SettingsStore
	Occupancy Occupancy
	Notifier  Notifier

	// DebounceWindow is the minimum gap between two notifications
	// sharing a gate scope.
	DebounceWindow time.Duration

	// IOTimeout bounds each store and notifier call.
	IOTimeout time.Duration

	now func() time.Time
}

const (
	DefaultDebounceWindow = 30 * time.Second
	DefaultIOTimeout      = 10 * time.Second
)

// NewProcessor wires a processor around the given collaborators.
func NewProcessor(tracker *Tracker, sessions SessionStore, settings SettingsStore, occ Occupancy, notifier Notifier) *Processor {
	return &Processor{
		Tracker:        tracker,
		Sessions:       sessions,
		Settings:       settings,
		Occupancy:      occ,
		Notifier:       notifier,
		DebounceWindow: DefaultDebounceWindow,
		IOTimeout:      DefaultIOTimeout,
		now:            time.Now,
	}
}

// SetClock overrides the processor's time source for tests.
func (p *Processor) SetClock(now func() time.Time) { p.now = now }

// Process handles one transition end to end: duration accrual for a
// completed session, then the notification decision for the destination
// channel. Presence-state mutations always commit regardless of
// downstream I/O outcome.
func (p *Processor) Process(ctx context.Context, ev Event) {
	kind := ev.Classify()
	if kind == KindNone {
		return
	}

	log := slog.With(
		slog.String("event_id", uuid.NewString()),
		slog.String("user_id", ev.UserID),
		slog.String("guild_id", ev.GuildID),
	)

	if kind == KindLeave || kind == KindMove {
		if elapsed, ok := p.Tracker.EndSession(ev.UserID); ok {
			p.flushSession(ctx, log, ev, elapsed)
		}
		// A leave with no tracked session means the join predated this
		// process; the partial session is silently not accrued.
	}

	if kind == KindJoin || kind == KindMove {
		p.Tracker.BeginSession(ev.UserID)
		telemetry.IncSessionsStarted()
	}
	telemetry.SetLiveSessions(p.Tracker.LiveSessions())

	if kind == KindLeave {
		return
	}

	p.evaluateNotification(ctx, log, ev)
}

func (p *Processor) flushSession(ctx context.Context, log *slog.Logger, ev Event, elapsed time.Duration) {
	seconds := int64(elapsed.Seconds())
	telemetry.IncSessionsFlushed()

	ioCtx, cancel := context.WithTimeout(ctx, p.IOTimeout)
	defer cancel()
	if err := p.Sessions.AddVoiceSeconds(ioCtx, ev.UserID, ev.GuildID, seconds); err != nil {
		telemetry.IncStoreErrors()
		log.Error("voice time flush failed",
			slog.Int64("seconds", seconds),
			slog.Any("err", err))
		return
	}
	telemetry.AddSecondsAccrued(seconds)
	log.Debug("voice time flushed", slog.Int64("seconds", seconds))
}

func (p *Processor) evaluateNotification(ctx context.Context, log *slog.Logger, ev Event) {
	log = log.With(slog.String("channel_id", ev.ChannelID))

	count, err := p.Occupancy.ChannelOccupancy(ev.GuildID, ev.ChannelID)
	if err != nil {
		log.Warn("occupancy lookup failed", slog.Any("err", err))
		return
	}
	if count != 1 {
		// The channel was already occupied (or the joining user is not
		// visible in state yet); nothing to announce.
		return
	}

	ioCtx, cancel := context.WithTimeout(ctx, p.IOTimeout)
	settings, err := p.Settings.VCPingSettings(ioCtx, ev.GuildID)
	cancel()
	if err != nil {
		log.Warn("settings lookup failed", slog.Any("err", err))
		return
	}
	if settings == nil {
		// Feature disabled for this guild.
		return
	}

	// Both gates are marked on every evaluated transition; suppression
	// applies when either is inside its window. The channel gate stops
	// distinct users re-pinging the same channel, the user gate stops
	// one user pinging by bouncing between channels.
	now := p.now()
	chanGated := p.Tracker.CheckAndMarkGate("channel:"+ev.GuildID+":"+ev.ChannelID, now, p.DebounceWindow)
	userGated := p.Tracker.CheckAndMarkGate("user:"+ev.UserID, now, p.DebounceWindow)
	if chanGated || userGated {
		telemetry.IncNotificationsSuppressed()
		log.Debug("notification suppressed",
			slog.Bool("channel_gate", chanGated),
			slog.Bool("user_gate", userGated))
		return
	}

	ioCtx, cancel = context.WithTimeout(ctx, p.IOTimeout)
	defer cancel()
	if err := p.Notifier.EmptyChannelNotice(ioCtx, *settings, ev.UserID, ev.ChannelID); err != nil {
		// Best-effort alert: the gate is already stamped, a failed send
		// is not retried and does not re-open the window.
		telemetry.IncNotifierErrors()
		log.Error("notification send failed", slog.Any("err", err))
		return
	}
	telemetry.IncNotificationsSent()
	log.Info("empty channel notification sent")
}
