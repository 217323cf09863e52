package main

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestCommand(t *testing.T) {
	base := Request{From: "TREE", To: "EXPLODE", Source: "gesture"}

	tests := []struct {
		name   string
		goos   string
		action string
		config string
		want   []string
	}{
		{
			name:   "linux notify with defaults",
			goos:   "linux",
			action: "notify",
			want:   []string{"notify-send", "Yuletide", "TREE -> EXPLODE (gesture)"},
		},
		{
			name:   "darwin notify quotes strings",
			goos:   "darwin",
			action: "notify",
			config: `{"title":"Say \"hi\"","message":"boom"}`,
			want:   []string{"osascript", "-e", `display notification "boom" with title "Say \"hi\""`},
		},
		{
			name:   "darwin say with voice",
			goos:   "darwin",
			action: "say",
			config: `{"message":"merry","voice":"Samantha"}`,
			want:   []string{"say", "-v", "Samantha", "merry"},
		},
		{
			name:   "linux say",
			goos:   "linux",
			action: "say",
			config: `{"message":"merry"}`,
			want:   []string{"espeak", "merry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.Action = tt.action
			if tt.config != "" {
				req.Config = json.RawMessage(tt.config)
			}

			got, err := command(tt.goos, req)
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_Errors(t *testing.T) {
	if _, err := command("linux", Request{Action: "dance"}); err == nil {
		t.Error("expected error for unknown action")
	}
	if _, err := command("linux", Request{Action: "notify", Config: json.RawMessage(`[1]`)}); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestOptions_NullConfig(t *testing.T) {
	opts, err := options(Request{From: "EXPLODE", To: "TREE", Config: json.RawMessage("null")})
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	if opts.Message != "EXPLODE -> TREE" {
		t.Errorf("unexpected message %q", opts.Message)
	}
}
