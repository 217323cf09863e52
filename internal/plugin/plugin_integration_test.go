package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPlugin_Notify_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("notify")
	if pluginDir == "" {
		t.Skip("notify plugin not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Resolve("notify", "notify")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// An action the plugin does not know has no side effects and must fail cleanly.
	req := &Request{
		Action:  "dance",
		Trigger: "enter_explode",
		From:    "TREE",
		To:      "EXPLODE",
		Source:  "manual",
	}

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if resp.Success {
		t.Error("expected failure for unknown action")
	}
}

// findPluginDir returns the plugin directory when both its manifest and its built
// executable are present.
func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "plugin.json")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir
		}
	}
	return ""
}
