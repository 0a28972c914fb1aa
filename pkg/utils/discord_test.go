package utils

import "testing"

func TestMentionRoundTrips(t *testing.T) {
	if got := ExtractUserIDFromMention(FormatUserMention("123")); got != "123" {
		t.Errorf("user mention round trip = %q, want %q", got, "123")
	}
	if got := ExtractUserIDFromMention("<@!456>"); got != "456" {
		t.Errorf("nickname mention = %q, want %q", got, "456")
	}
	if got := ExtractRoleIDFromMention(FormatRoleMention("789")); got != "789" {
		t.Errorf("role mention round trip = %q, want %q", got, "789")
	}
	if got := ExtractChannelIDFromMention(FormatChannelMention("321")); got != "321" {
		t.Errorf("channel mention round trip = %q, want %q", got, "321")
	}
}

func TestMentionPredicates(t *testing.T) {
	tests := []struct {
		text                string
		user, role, channel bool
	}{
		{"<@123>", true, false, false},
		{"<@&123>", true, true, false},
		{"<#123>", false, false, true},
		{"plain", false, false, false},
	}
	for _, tt := range tests {
		if got := IsUserMention(tt.text); got != tt.user {
			t.Errorf("IsUserMention(%q) = %v, want %v", tt.text, got, tt.user)
		}
		if got := IsRoleMention(tt.text); got != tt.role {
			t.Errorf("IsRoleMention(%q) = %v, want %v", tt.text, got, tt.role)
		}
		if got := IsChannelMention(tt.text); got != tt.channel {
			t.Errorf("IsChannelMention(%q) = %v, want %v", tt.text, got, tt.channel)
		}
	}
}

func TestFormatLeaderboardEntry(t *testing.T) {
	if got := FormatLeaderboardEntry(1, "<@1>", "1:00:00"); got != "🥇 <@1> - 1:00:00" {
		t.Errorf("rank 1 = %q", got)
	}
	if got := FormatLeaderboardEntry(4, "<@4>", "0:10:00"); got != "4. <@4> - 0:10:00" {
		t.Errorf("rank 4 = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00:00"},
		{59, "0:00:59"},
		{3661, "1:01:01"},
		{86400, "24:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
