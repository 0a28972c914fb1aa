// Package discord wires the gateway connection to the presence core and
// implements the chat-facing command handlers.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/config"
	"vcwarden/internal/database"
	"vcwarden/internal/presence"
	"vcwarden/internal/sentiment"
)

// Bot represents the Discord bot
type Bot struct {
	session   *discordgo.Session
	repo      *database.Repository
	tracker   *presence.Tracker
	processor *presence.Processor
	settings  presence.SettingsStore
	scorer    *sentiment.Client

	prefix         string
	parentalRoleID string
	sweepInterval  time.Duration
	gateRetention  time.Duration
	started        time.Time
}

// New creates a new Discord bot around the repository.
func New(cfg *config.Config, repo *database.Repository) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	tracker := presence.NewTracker()
	settings := presence.NewSettingsFallback(repo, cfg.FallbackPingChannelID, cfg.FallbackPingRoleID)

	bot := &Bot{
		session:        session,
		repo:           repo,
		tracker:        tracker,
		settings:       settings,
		prefix:         cfg.CommandPrefix,
		parentalRoleID: cfg.ParentalControlRoleID,
		sweepInterval:  cfg.SweepInterval,
		gateRetention:  cfg.GateRetention,
	}

	processor := presence.NewProcessor(
		tracker,
		repo,
		settings,
		stateOccupancy{state: session.State},
		&channelNotifier{session: session},
	)
	processor.DebounceWindow = cfg.DebounceWindow
	bot.processor = processor

	if cfg.LLMAPIBase != "" {
		bot.scorer = sentiment.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel)
	}

	session.AddHandler(bot.voiceStateUpdate)
	session.AddHandler(bot.messageCreate)
	session.AddHandler(bot.ready)

	return bot, nil
}

// Start opens the gateway connection and launches the gate sweeper. The
// sweeper stops when ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.started = time.Now()
	go b.tracker.RunGateSweeper(ctx, b.sweepInterval, b.gateRetention)
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("gateway ready",
		slog.String("user", r.User.Username),
		slog.Int("guilds", len(r.Guilds)))
}

// voiceStateUpdate translates a gateway voice-state update into a
// presence transition and hands it to the processor. BeforeUpdate is
// populated from the session state cache, so a nil value means the user
// had no tracked prior channel.
func (b *Bot) voiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	prev := ""
	if vs.BeforeUpdate != nil {
		prev = vs.BeforeUpdate.ChannelID
	}
	b.processor.Process(context.Background(), presence.Event{
		UserID:        vs.UserID,
		GuildID:       vs.GuildID,
		PrevChannelID: prev,
		ChannelID:     vs.ChannelID,
	})
}

// stateOccupancy counts voice channel members from the session state
// cache. The count is resolved at decision time; a transient stale read
// during rapid moves is accepted.
type stateOccupancy struct {
	state *discordgo.State
}

func (o stateOccupancy) ChannelOccupancy(guildID, channelID string) (int, error) {
	guild, err := o.state.Guild(guildID)
	if err != nil {
		return 0, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}
	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}
