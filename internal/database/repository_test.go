package database

import (
	"context"
	"os"
	"testing"

	"vcwarden/internal/models"
)

// openTestDB connects using TEST_PG_DSN or skips the test. These tests
// exercise real SQL against a scratch Postgres.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres repository test")
	}
	db, err := New(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAddAndGetVoiceSeconds(t *testing.T) {
	db := openTestDB(t)
	r := NewRepository(db)
	ctx := context.Background()

	if err := r.AddVoiceSeconds(ctx, "u-repo-test", "g-repo-test", 40); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := r.AddVoiceSeconds(ctx, "u-repo-test", "g-repo-test", 20); err != nil {
		t.Fatalf("second add: %v", err)
	}

	total, err := r.GetVoiceSeconds(ctx, "u-repo-test", "g-repo-test")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if total < 60 {
		t.Fatalf("total = %d, want at least 60 (increments accumulate)", total)
	}
}

func TestAddVoiceSecondsRejectsNegative(t *testing.T) {
	db := openTestDB(t)
	r := NewRepository(db)

	if err := r.AddVoiceSeconds(context.Background(), "u", "g", -1); err == nil {
		t.Fatal("expected error for negative seconds")
	}
}

func TestGetVoiceSecondsMissingUser(t *testing.T) {
	db := openTestDB(t)
	r := NewRepository(db)

	total, err := r.GetVoiceSeconds(context.Background(), "nobody", "nowhere")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0 for unknown user", total)
	}
}

func TestVCPingSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	r := NewRepository(db)
	ctx := context.Background()

	s, err := r.VCPingSettings(ctx, "g-unconfigured")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if s != nil {
		t.Fatalf("settings = %+v, want nil for unconfigured guild", s)
	}

	want := models.VCPingSettings{GuildID: "g-settings-test", ChannelID: "c1", RoleID: "r1"}
	if err := r.UpsertVCPingSettings(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Re-upsert replaces.
	want.ChannelID = "c2"
	if err := r.UpsertVCPingSettings(ctx, want); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := r.VCPingSettings(ctx, "g-settings-test")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}
