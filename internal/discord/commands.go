package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/models"
	"vcwarden/internal/sentiment"
	"vcwarden/internal/telemetry"
	"vcwarden/pkg/utils"
)

const leaderboardSize = 10

// messageCreate dispatches prefix commands.
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.prefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "voice":
		b.handleVoice(s, m)
	case "leaderboard":
		b.handleLeaderboard(s, m)
	case "setleaderboard":
		b.handleSetLeaderboard(s, m)
	case "vcping":
		b.handleVCPing(s, m)
	case "vcpingsetup":
		b.handleVCPingSetup(s, m, args)
	case "purge":
		b.handlePurge(s, m, args)
	case "nixos":
		b.handleNixos(s, m, strings.Join(args, " "))
	case "parental":
		b.handleParental(s, m, args)
	case "ping":
		b.handlePing(s, m)
	case "uptime":
		b.handleUptime(s, m)
	default:
		return
	}
	telemetry.IncCommand(command)
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		slog.Error("reply failed", slog.String("channel_id", m.ChannelID), slog.Any("err", err))
	}
}

// handleVoice reports the caller's accumulated voice time in this guild.
func (b *Bot) handleVoice(s *discordgo.Session, m *discordgo.MessageCreate) {
	total, err := b.repo.GetVoiceSeconds(context.Background(), m.Author.ID, m.GuildID)
	if err != nil {
		slog.Error("voice command failed", slog.String("user_id", m.Author.ID), slog.Any("err", err))
		b.reply(s, m, "Something went wrong fetching your voice time.")
		return
	}
	b.reply(s, m, fmt.Sprintf("⏱️ %s, total voice time: %s", m.Author.Username, utils.FormatDuration(total)))
}

func (b *Bot) leaderboardEmbed(ctx context.Context, guildID string) (*discordgo.MessageEmbed, error) {
	entries, err := b.repo.TopVoiceTimes(ctx, guildID, leaderboardSize)
	if err != nil {
		return nil, err
	}

	var lines []string
	for i, entry := range entries {
		lines = append(lines, utils.FormatLeaderboardEntry(
			i+1,
			utils.FormatUserMention(entry.UserID),
			utils.FormatDuration(entry.TotalSeconds),
		))
	}
	if len(lines) == 0 {
		lines = append(lines, "(no voice time recorded yet)")
	}

	return &discordgo.MessageEmbed{
		Description: "# 📕 Leaderboard\n" + strings.Join(lines, "\n"),
	}, nil
}

// handleLeaderboard prints the guild's top users by voice time.
func (b *Bot) handleLeaderboard(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed, err := b.leaderboardEmbed(context.Background(), m.GuildID)
	if err != nil {
		slog.Error("leaderboard command failed", slog.String("guild_id", m.GuildID), slog.Any("err", err))
		b.reply(s, m, "Something went wrong fetching the leaderboard.")
		return
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		slog.Error("leaderboard send failed", slog.Any("err", err))
	}
}

// handleSetLeaderboard posts the leaderboard in the current channel and
// remembers the message so the next invocation replaces it.
func (b *Bot) handleSetLeaderboard(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.hasPermission(s, m, discordgo.PermissionManageServer) {
		b.reply(s, m, "Insufficient permissions")
		return
	}
	ctx := context.Background()

	if prev, err := b.repo.LeaderboardPost(ctx, m.GuildID); err != nil {
		slog.Warn("previous leaderboard post lookup failed", slog.Any("err", err))
	} else if prev != nil {
		if err := s.ChannelMessageDelete(prev.ChannelID, prev.MessageID); err != nil {
			// The old message may have been deleted by hand.
			slog.Debug("previous leaderboard post delete failed", slog.Any("err", err))
		}
	}

	embed, err := b.leaderboardEmbed(ctx, m.GuildID)
	if err != nil {
		slog.Error("leaderboard build failed", slog.Any("err", err))
		b.reply(s, m, "Something went wrong building the leaderboard.")
		return
	}
	sent, err := s.ChannelMessageSendEmbed(m.ChannelID, embed)
	if err != nil {
		slog.Error("leaderboard post failed", slog.Any("err", err))
		return
	}

	err = b.repo.UpsertLeaderboardPost(ctx, models.LeaderboardPost{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: sent.ID,
	})
	if err != nil {
		slog.Error("leaderboard post record failed", slog.Any("err", err))
		return
	}
	b.reply(s, m, fmt.Sprintf("Leaderboard channel set to %s", utils.FormatChannelMention(m.ChannelID)))
}

// handleVCPing toggles the configured ping role on the caller.
func (b *Bot) handleVCPing(s *discordgo.Session, m *discordgo.MessageCreate) {
	settings, err := b.settings.VCPingSettings(context.Background(), m.GuildID)
	if err != nil {
		slog.Error("vcping settings lookup failed", slog.Any("err", err))
		b.reply(s, m, "Something went wrong fetching the ping settings.")
		return
	}
	if settings == nil {
		b.reply(s, m, fmt.Sprintf("Voice channel pings are not set up here. An admin can run `%svcpingsetup #channel @role`.", b.prefix))
		return
	}

	member := m.Member
	if member == nil {
		return
	}

	if slices.Contains(member.Roles, settings.RoleID) {
		if err := s.GuildMemberRoleRemove(m.GuildID, m.Author.ID, settings.RoleID); err != nil {
			slog.Error("role remove failed", slog.Any("err", err))
			b.reply(s, m, "Unable to update your roles.")
			return
		}
		b.reply(s, m, ":fire: Unsubscribed from voice channel pings!")
		return
	}
	if err := s.GuildMemberRoleAdd(m.GuildID, m.Author.ID, settings.RoleID); err != nil {
		slog.Error("role add failed", slog.Any("err", err))
		b.reply(s, m, "Unable to update your roles.")
		return
	}
	b.reply(s, m, ":fire: Subscribed to voice channel pings!")
}

// handleVCPingSetup stores the guild's notification channel and role.
func (b *Bot) handleVCPingSetup(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !b.hasPermission(s, m, discordgo.PermissionManageServer) {
		b.reply(s, m, "Insufficient permissions")
		return
	}
	if len(args) != 2 || !utils.IsChannelMention(args[0]) || !utils.IsRoleMention(args[1]) {
		b.reply(s, m, fmt.Sprintf("Usage: `%svcpingsetup #channel @role`", b.prefix))
		return
	}

	settings := models.VCPingSettings{
		GuildID:   m.GuildID,
		ChannelID: utils.ExtractChannelIDFromMention(args[0]),
		RoleID:    utils.ExtractRoleIDFromMention(args[1]),
	}
	if err := b.repo.UpsertVCPingSettings(context.Background(), settings); err != nil {
		slog.Error("vcping settings upsert failed", slog.String("guild_id", m.GuildID), slog.Any("err", err))
		b.reply(s, m, "Something went wrong saving the settings.")
		return
	}
	b.reply(s, m, fmt.Sprintf("VC ping channel set to %s", utils.FormatChannelMention(settings.ChannelID)))
}

// handlePurge bulk-deletes the last n messages in the channel.
func (b *Bot) handlePurge(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !b.hasPermission(s, m, discordgo.PermissionManageMessages) {
		b.reply(s, m, "Insufficient permissions")
		return
	}
	if len(args) != 1 {
		b.reply(s, m, fmt.Sprintf("Usage: `%spurge <count>`", b.prefix))
		return
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 || count > 100 {
		b.reply(s, m, "Count must be between 1 and 100.")
		return
	}

	// +1 so the command message itself goes too.
	messages, err := s.ChannelMessages(m.ChannelID, count+1, "", "", "")
	if err != nil {
		slog.Error("purge fetch failed", slog.Any("err", err))
		return
	}
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	if err := s.ChannelMessagesBulkDelete(m.ChannelID, ids); err != nil {
		slog.Error("purge delete failed", slog.Any("err", err))
		b.reply(s, m, "Unable to delete messages.")
		return
	}
	b.reply(s, m, fmt.Sprintf(":fire: Deleted %d messages!", count))
}

// handleNixos scores the caller's opinion and punishes the unenlightened.
func (b *Bot) handleNixos(s *discordgo.Session, m *discordgo.MessageCreate, opinion string) {
	if b.scorer == nil {
		b.reply(s, m, "The attitude judge is not configured.")
		return
	}
	if opinion == "" {
		b.reply(s, m, fmt.Sprintf("Usage: `%snixos <your opinion>`", b.prefix))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	score, err := b.scorer.Score(ctx, opinion)
	if err != nil {
		var unparseable *sentiment.ErrUnparseable
		if errors.As(err, &unparseable) {
			b.reply(s, m, ":fire: The AI didn't understand your opinion. Please try again.")
			return
		}
		slog.Error("sentiment scoring failed", slog.Any("err", err))
		b.reply(s, m, "The attitude judge is unavailable right now.")
		return
	}

	if score < 50 {
		until := time.Now().Add(69 * time.Second)
		if err := s.GuildMemberTimeout(m.GuildID, m.Author.ID, &until); err != nil {
			slog.Warn("timeout failed", slog.String("user_id", m.Author.ID), slog.Any("err", err))
		}
	}
	b.reply(s, m, fmt.Sprintf(":fire: Your attitude towards NixOS is: %d%%", score))
}

// handleParental toggles the parental-control role on the target user.
func (b *Bot) handleParental(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if b.parentalRoleID == "" {
		b.reply(s, m, "Parental control is not configured.")
		return
	}
	if len(args) != 1 || !utils.IsUserMention(args[0]) {
		b.reply(s, m, fmt.Sprintf("Usage: `%sparental @user`", b.prefix))
		return
	}
	if !b.hasPermission(s, m, discordgo.PermissionManageRoles) {
		b.reply(s, m, "Insufficient permissions")
		return
	}

	targetID := utils.ExtractUserIDFromMention(args[0])
	target, err := s.GuildMember(m.GuildID, targetID)
	if err != nil {
		b.reply(s, m, "Couldn't find that member.")
		return
	}

	roles, err := s.GuildRoles(m.GuildID)
	if err != nil {
		slog.Error("guild roles lookup failed", slog.Any("err", err))
		return
	}
	if m.Member != nil && highestRolePosition(m.Member, roles) <= highestRolePosition(target, roles) {
		b.reply(s, m, "Insufficient permissions")
		return
	}

	if slices.Contains(target.Roles, b.parentalRoleID) {
		if err := s.GuildMemberRoleRemove(m.GuildID, targetID, b.parentalRoleID); err != nil {
			b.reply(s, m, "Unable to remove parental control")
			return
		}
		b.reply(s, m, ":fire: Removed parental control!")
		return
	}
	if err := s.GuildMemberRoleAdd(m.GuildID, targetID, b.parentalRoleID); err != nil {
		b.reply(s, m, "Unable to add parental control")
		return
	}
	b.reply(s, m, ":fire: Added parental control!")
}

// handlePing reports gateway latency.
func (b *Bot) handlePing(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.reply(s, m, fmt.Sprintf(":fire: Ping: %s", s.HeartbeatLatency().Round(time.Millisecond)))
}

// handleUptime reports process uptime.
func (b *Bot) handleUptime(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.reply(s, m, fmt.Sprintf(":fire: Uptime: %s", time.Since(b.started).Round(time.Second)))
}

func (b *Bot) hasPermission(s *discordgo.Session, m *discordgo.MessageCreate, perm int64) bool {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		slog.Warn("permission check failed", slog.String("user_id", m.Author.ID), slog.Any("err", err))
		return false
	}
	return perms&perm != 0
}

func highestRolePosition(member *discordgo.Member, roles []*discordgo.Role) int {
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	highest := 0
	for _, id := range member.Roles {
		if role, ok := byID[id]; ok && role.Position > highest {
			highest = role.Position
		}
	}
	return highest
}
