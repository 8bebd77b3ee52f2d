package models

import (
	"testing"
)

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{Disconnected, "disconnected"},
		{Connecting, "connecting"},
		{Connected, "connected"},
		{ConnectionState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ConnectionState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestMessageConfirmed(t *testing.T) {
	confirmed := &Message{ID: 42, GroupID: 1, SenderID: 2, Content: "anyone up for a run?"}
	if !confirmed.Confirmed() {
		t.Errorf("message with server ID should be confirmed")
	}

	optimistic := &Message{ClientID: "b7a9e1c4-0000-0000-0000-000000000000", GroupID: 1, Content: "pending"}
	if optimistic.Confirmed() {
		t.Errorf("message without server ID should not be confirmed")
	}
}

func TestProfileDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    string
	}{
		{"full name preferred", &Profile{Username: "jdoe", FullName: "John Doe"}, "John Doe"},
		{"username fallback", &Profile{Username: "jdoe"}, "jdoe"},
		{"nil profile", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
