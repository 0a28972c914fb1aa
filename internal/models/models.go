package models

// VoiceTime represents a user's accumulated voice seconds in a guild
type VoiceTime struct {
	UserID       string
	GuildID      string
	TotalSeconds int64
}

// VCPingSettings represents per-guild voice channel ping configuration
type VCPingSettings struct {
	GuildID   string
	ChannelID string
	RoleID    string
}

// LeaderboardPost represents the pinned leaderboard message for a guild
type LeaderboardPost struct {
	GuildID   string
	ChannelID string
	MessageID string
}
