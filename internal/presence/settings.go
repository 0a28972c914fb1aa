package presence

import (
	"context"

	"vcwarden/internal/models"
)

type settingsFallback struct {
	store     SettingsStore
	channelID string
	roleID    string
}

// NewSettingsFallback wraps a SettingsStore so guilds without stored
// settings fall back to a process-wide channel/role pair. This keeps
// legacy single-guild deployments working without running the setup
// command. The fallback applies only when both ids are set.
func NewSettingsFallback(store SettingsStore, channelID, roleID string) SettingsStore {
	if channelID == "" || roleID == "" {
		return store
	}
	return &settingsFallback{store: store, channelID: channelID, roleID: roleID}
}

func (s *settingsFallback) VCPingSettings(ctx context.Context, guildID string) (*models.VCPingSettings, error) {
	got, err := s.store.VCPingSettings(ctx, guildID)
	if err != nil || got != nil {
		return got, err
	}
	return &models.VCPingSettings{
		GuildID:   guildID,
		ChannelID: s.channelID,
		RoleID:    s.roleID,
	}, nil
}
