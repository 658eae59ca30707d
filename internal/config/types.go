package config

type Config struct {
	Platform  PlatformConfig  `json:"platform"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Rooms     RoomsConfig     `json:"rooms"`
}

// PlatformConfig selects and configures the chat platform connection.
//
// Driver names a registered platform driver (see internal/platform).
type PlatformConfig struct {
	Driver string `json:"driver"`
	Token  string `json:"token"`

	// LogRoomID is an optional room that receives mirrored warnings/errors.
	// 0 disables the platform log sink target.
	LogRoomID int64 `json:"log_room_id,omitempty"`

	// EventBuffer sizes the gateway event channel. 0 uses the driver default.
	EventBuffer int `json:"event_buffer,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Platform LoggingPlatform `json:"platform"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingPlatform struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./roomkeeper.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// SchedulerConfig controls the schedule engine.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Timezone for cron evaluation. Empty means UTC.
	Timezone string `json:"timezone,omitempty"`
}

// RoomsConfig controls the temp room lifecycle controller.
type RoomsConfig struct {
	// WarmUpOnStart reconciles cached rooms against the platform after connect.
	WarmUpOnStart bool `json:"warm_up_on_start"`

	// PromptsEnabled controls whether the bot posts configuration prompts
	// into freshly created or restored rooms.
	PromptsEnabled bool `json:"prompts_enabled"`
}
