package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetConfig() {
	viper.Reset()
	cfg = nil
	configPathOverride = ""
}

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		resetConfig()

		if err := Init(); err != nil {
			t.Errorf("Init() failed: %v", err)
		}

		config := Get()
		if config == nil {
			t.Fatal("Get() returned nil after Init()")
		}

		if !config.Engine.OffscreenOnly {
			t.Error("Expected offscreen_only to default to true")
		}
		if config.Engine.BrowserArguments != "" {
			t.Errorf("Expected empty browser arguments, got %q", config.Engine.BrowserArguments)
		}
		if config.IPC.SocketPath == "" {
			t.Error("Expected a default socket path")
		}
		if config.IPC.MaxClients != 0 {
			t.Errorf("Expected unlimited clients by default, got %d", config.IPC.MaxClients)
		}
	})

	t.Run("reads values from an explicit config file", func(t *testing.T) {
		resetConfig()

		content := `[engine]
browser_arguments = "--enable-gpu-rasterization"
offscreen_only = false
user_agent = "kiosk/1.0"

[ipc]
socket_path = "/tmp/test-bridge.sock"
max_clients = 4

[logging]
log_level = "debug"
`
		path := filepath.Join(t.TempDir(), "webview-bridge.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		SetConfigPath(path)
		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		config := Get()
		if config.Engine.BrowserArguments != "--enable-gpu-rasterization" {
			t.Errorf("Unexpected browser arguments: %q", config.Engine.BrowserArguments)
		}
		if config.Engine.OffscreenOnly {
			t.Error("Expected offscreen_only false from file")
		}
		if config.Engine.UserAgent != "kiosk/1.0" {
			t.Errorf("Unexpected user agent: %q", config.Engine.UserAgent)
		}
		if config.IPC.SocketPath != "/tmp/test-bridge.sock" {
			t.Errorf("Unexpected socket path: %q", config.IPC.SocketPath)
		}
		if config.IPC.MaxClients != 4 {
			t.Errorf("Unexpected max clients: %d", config.IPC.MaxClients)
		}
		if config.Logging.LogLevel != "debug" {
			t.Errorf("Unexpected log level: %q", config.Logging.LogLevel)
		}
	})

	t.Run("partial config keeps defaults for missing fields", func(t *testing.T) {
		resetConfig()

		path := filepath.Join(t.TempDir(), "webview-bridge.toml")
		if err := os.WriteFile(path, []byte("[logging]\nlog_level = \"warn\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		SetConfigPath(path)
		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		config := Get()
		if config.Logging.LogLevel != "warn" {
			t.Errorf("Unexpected log level: %q", config.Logging.LogLevel)
		}
		if !config.Engine.OffscreenOnly {
			t.Error("Expected offscreen_only default to survive a partial file")
		}
	})

	t.Run("rejects invalid TOML", func(t *testing.T) {
		resetConfig()

		path := filepath.Join(t.TempDir(), "webview-bridge.toml")
		if err := os.WriteFile(path, []byte("[engine\nbroken"), 0o644); err != nil {
			t.Fatal(err)
		}

		SetConfigPath(path)
		if err := Init(); err == nil {
			t.Error("Init() should fail on invalid TOML")
		}
	})
}

func TestGetWithoutInit(t *testing.T) {
	resetConfig()

	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil before Init()")
	}
	if !config.Engine.OffscreenOnly {
		t.Error("Expected defaults before Init()")
	}
}

func TestSetOverridesConfig(t *testing.T) {
	resetConfig()

	custom := &Config{
		Engine: EngineConfig{UserAgent: "custom"},
	}
	Set(custom)

	if Get() != custom {
		t.Error("Get() did not return the config passed to Set()")
	}
}

func TestGetConfigPath(t *testing.T) {
	resetConfig()

	SetConfigPath("/etc/webview-bridge/webview-bridge.toml")
	if got := GetConfigPath(); got != "/etc/webview-bridge/webview-bridge.toml" {
		t.Errorf("GetConfigPath() = %q, want override path", got)
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Run("prefers XDG_RUNTIME_DIR", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
		if got := defaultSocketPath(); got != "/run/user/1000/webview-bridge.sock" {
			t.Errorf("defaultSocketPath() = %q", got)
		}
	})

	t.Run("falls back to the temp dir", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "")
		want := filepath.Join(os.TempDir(), "webview-bridge.sock")
		if got := defaultSocketPath(); got != want {
			t.Errorf("defaultSocketPath() = %q, want %q", got, want)
		}
	})
}
