package presence

import (
	"context"
	"errors"
	"testing"

	"vcwarden/internal/models"
)

func TestSettingsFallbackUsedWhenUnconfigured(t *testing.T) {
	store := NewSettingsFallback(&fakeSettingsStore{settings: nil}, "fallback-chan", "fallback-role")

	got, err := store.VCPingSettings(context.Background(), "g1")
	if err != nil {
		t.Fatalf("VCPingSettings: %v", err)
	}
	if got == nil || got.ChannelID != "fallback-chan" || got.RoleID != "fallback-role" {
		t.Fatalf("settings = %+v, want fallback pair", got)
	}
}

func TestSettingsFallbackPrefersStored(t *testing.T) {
	stored := &models.VCPingSettings{GuildID: "g1", ChannelID: "stored-chan", RoleID: "stored-role"}
	store := NewSettingsFallback(&fakeSettingsStore{settings: stored}, "fallback-chan", "fallback-role")

	got, err := store.VCPingSettings(context.Background(), "g1")
	if err != nil {
		t.Fatalf("VCPingSettings: %v", err)
	}
	if got.ChannelID != "stored-chan" {
		t.Fatalf("settings = %+v, want stored settings to win", got)
	}
}

func TestSettingsFallbackDisabledWhenPartial(t *testing.T) {
	store := NewSettingsFallback(&fakeSettingsStore{settings: nil}, "fallback-chan", "")

	got, err := store.VCPingSettings(context.Background(), "g1")
	if err != nil || got != nil {
		t.Fatalf("settings = (%+v, %v), want (nil, nil) when fallback is partial", got, err)
	}
}

func TestSettingsFallbackPropagatesError(t *testing.T) {
	boom := errors.New("store down")
	store := NewSettingsFallback(&fakeSettingsStore{err: boom}, "c", "r")

	if _, err := store.VCPingSettings(context.Background(), "g1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want store error passed through", err)
	}
}
