package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"vcwarden/internal/models"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// AddVoiceSeconds adds accrued voice seconds for a user in a guild,
// creating the row on first accrual.
func (r *Repository) AddVoiceSeconds(ctx context.Context, userID, guildID string, seconds int64) error {
	if seconds < 0 {
		return fmt.Errorf("negative voice seconds: %d", seconds)
	}
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO voice_time (user_id, guild_id, total_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, guild_id) DO UPDATE SET total_seconds = voice_time.total_seconds + EXCLUDED.total_seconds`,
		userID, guildID, seconds)
	if err != nil {
		return fmt.Errorf("failed to add voice seconds: %w", err)
	}
	return nil
}

// GetVoiceSeconds gets total accrued voice seconds for a user in a guild.
// A user with no accrual yet reads as zero.
func (r *Repository) GetVoiceSeconds(ctx context.Context, userID, guildID string) (int64, error) {
	var totalSeconds int64
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT total_seconds FROM voice_time WHERE user_id = $1 AND guild_id = $2",
		userID, guildID).Scan(&totalSeconds)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to get voice seconds: %w", err)
	}
	return totalSeconds, nil
}

// TopVoiceTimes returns the top users by accrued seconds for a guild,
// ties broken by ascending user id so rankings are deterministic.
func (r *Repository) TopVoiceTimes(ctx context.Context, guildID string, limit int) ([]models.VoiceTime, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT user_id, total_seconds FROM voice_time WHERE guild_id = $1 ORDER BY total_seconds DESC, user_id ASC LIMIT $2",
		guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.VoiceTime
	for rows.Next() {
		var vt models.VoiceTime
		if err := rows.Scan(&vt.UserID, &vt.TotalSeconds); err != nil {
			slog.Warn("skipping unreadable leaderboard row", slog.Any("err", err))
			continue
		}
		vt.GuildID = guildID
		entries = append(entries, vt)
	}

	return entries, rows.Err()
}

// VCPingSettings returns the guild's notification settings, or nil when
// none are configured.
func (r *Repository) VCPingSettings(ctx context.Context, guildID string) (*models.VCPingSettings, error) {
	s := models.VCPingSettings{GuildID: guildID}
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT channel_id, role_id FROM vcping_settings WHERE guild_id = $1",
		guildID).Scan(&s.ChannelID, &s.RoleID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vcping settings: %w", err)
	}
	return &s, nil
}

// UpsertVCPingSettings stores or replaces the guild's notification settings.
func (r *Repository) UpsertVCPingSettings(ctx context.Context, s models.VCPingSettings) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO vcping_settings (guild_id, channel_id, role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id, role_id = EXCLUDED.role_id`,
		s.GuildID, s.ChannelID, s.RoleID)
	if err != nil {
		return fmt.Errorf("failed to upsert vcping settings: %w", err)
	}
	return nil
}

// LeaderboardPost returns the guild's pinned leaderboard message, or
// nil when none has been posted.
func (r *Repository) LeaderboardPost(ctx context.Context, guildID string) (*models.LeaderboardPost, error) {
	p := models.LeaderboardPost{GuildID: guildID}
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT channel_id, message_id FROM leaderboard_posts WHERE guild_id = $1",
		guildID).Scan(&p.ChannelID, &p.MessageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard post: %w", err)
	}
	return &p, nil
}

// UpsertLeaderboardPost records where the current leaderboard message lives.
func (r *Repository) UpsertLeaderboardPost(ctx context.Context, p models.LeaderboardPost) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO leaderboard_posts (guild_id, channel_id, message_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id, message_id = EXCLUDED.message_id`,
		p.GuildID, p.ChannelID, p.MessageID)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard post: %w", err)
	}
	return nil
}
