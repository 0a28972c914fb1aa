package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/models"
	"vcwarden/pkg/utils"
)

// channelNotifier delivers empty-channel notices to the configured text
// channel, mentioning the configured role.
type channelNotifier struct {
	session *discordgo.Session
}

func (n *channelNotifier) EmptyChannelNotice(ctx context.Context, settings models.VCPingSettings, userID, voiceChannelID string) error {
	name := n.channelName(voiceChannelID)

	who := utils.FormatUserMention(userID)
	if user, err := n.session.User(userID, discordgo.WithContext(ctx)); err == nil {
		who = user.Username
	}

	msg := fmt.Sprintf(":fire: %s, %s joined empty voice channel: %s!",
		utils.FormatRoleMention(settings.RoleID), who, name)

	_, err := n.session.ChannelMessageSend(settings.ChannelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func (n *channelNotifier) channelName(channelID string) string {
	if ch, err := n.session.State.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	if ch, err := n.session.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	return utils.FormatChannelMention(channelID)
}
