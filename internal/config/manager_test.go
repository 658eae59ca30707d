package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"platform": {"driver": "discord", "token": "tok", "log_room_id": 99},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}, "platform": {"enabled": false, "min_level": "", "rate_per_sec": 0}},
		"storage": {"driver": "sqlite", "path": "./rk.db"},
		"scheduler": {"enabled": true},
		"rooms": {"warm_up_on_start": true, "prompts_enabled": true}
	}`)

	m := NewConfigManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform.Driver != "discord" || cfg.Platform.Token != "tok" {
		t.Fatalf("platform section mismatch: %+v", cfg.Platform)
	}
	if cfg.Platform.LogRoomID != 99 {
		t.Fatalf("log_room_id = %d, want 99", cfg.Platform.LogRoomID)
	}
	if !cfg.Scheduler.Enabled || !cfg.Rooms.WarmUpOnStart {
		t.Fatalf("scheduler/rooms mismatch: %+v %+v", cfg.Scheduler, cfg.Rooms)
	}
	if got := m.Get(); got != cfg {
		t.Fatalf("Get() should return committed config")
	}
}

func TestParseYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
platform:
  driver: discord
  token: tok
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
  platform:
    enabled: false
    min_level: ""
    rate_per_sec: 0
storage:
  driver: sqlite
  path: ./rk.db
scheduler:
  enabled: false
rooms:
  warm_up_on_start: false
  prompts_enabled: true
`)

	m := NewConfigManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform.Driver != "discord" || cfg.Storage.Path != "./rk.db" {
		t.Fatalf("yaml parse mismatch: %+v", cfg)
	}
	if !cfg.Rooms.PromptsEnabled {
		t.Fatalf("rooms.prompts_enabled should be true")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"platform": {"driver": "discord", "token": "t", "bogus": 1}}`)

	m := NewConfigManager(path)
	if _, err := m.Parse(); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"platform": {"driver": "d", "token": "t"}}{"extra": true}`)

	m := NewConfigManager(path)
	if _, err := m.Parse(); err == nil {
		t.Fatalf("expected trailing-data error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Platform: PlatformConfig{Driver: "discord", Token: "tok"},
		Storage:  StorageConfig{Driver: "sqlite", Path: "./rk.db"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := *cfg
	bad.Platform.Token = ""
	if err := Validate(&bad); err == nil {
		t.Fatalf("expected missing-token error")
	}

	bad = *cfg
	bad.Storage.BusyTimeout = "not-a-duration"
	if err := Validate(&bad); err == nil {
		t.Fatalf("expected busy_timeout error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ROOMKEEPER_PLATFORM_TOKEN", "env-tok")
	t.Setenv("ROOMKEEPER_DATABASE_PATH", "/tmp/env.db")

	cfg := &Config{
		Platform: PlatformConfig{Driver: "discord", Token: "file-tok"},
		Storage:  StorageConfig{Driver: "sqlite", Path: "./file.db"},
	}
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Platform.Token != "env-tok" {
		t.Fatalf("token = %q, want env override", cfg.Platform.Token)
	}
	if cfg.Storage.Path != "/tmp/env.db" {
		t.Fatalf("path = %q, want env override", cfg.Storage.Path)
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	oldCfg := &Config{
		Platform: PlatformConfig{Driver: "discord", Token: "t"},
		Logging:  LoggingConfig{Level: "info"},
	}
	newCfg := &Config{
		Platform: PlatformConfig{Driver: "discord", Token: "t"},
		Logging:  LoggingConfig{Level: "debug"},
	}

	changed, _ := SummarizeConfigChange(oldCfg, newCfg)
	if len(changed) != 1 || changed[0] != "logging" {
		t.Fatalf("changed = %v, want [logging]", changed)
	}

	changed, _ = SummarizeConfigChange(newCfg, newCfg)
	if len(changed) != 0 {
		t.Fatalf("identical configs should report no changes, got %v", changed)
	}
}
