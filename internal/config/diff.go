package config

import (
	"sort"
	"strings"

	logx "roomkeeper/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging (never includes secrets like tokens).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	// Platform (never log token)
	if strings.TrimSpace(oldCfg.Platform.Driver) != strings.TrimSpace(newCfg.Platform.Driver) ||
		oldCfg.Platform.LogRoomID != newCfg.Platform.LogRoomID ||
		oldCfg.Platform.EventBuffer != newCfg.Platform.EventBuffer ||
		(strings.TrimSpace(oldCfg.Platform.Token) != "") != (strings.TrimSpace(newCfg.Platform.Token) != "") {
		changed = append(changed, "platform")
		attrs = append(attrs,
			logx.String("platform.driver", strings.TrimSpace(newCfg.Platform.Driver)),
			logx.Bool("platform.token_set", strings.TrimSpace(newCfg.Platform.Token) != ""),
			logx.Bool("platform.log_room_set", newCfg.Platform.LogRoomID != 0),
			logx.Int("platform.event_buffer", newCfg.Platform.EventBuffer),
		)
	}

	// Logging
	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) ||
		oldCfg.Logging.Platform.Enabled != newCfg.Logging.Platform.Enabled ||
		oldCfg.Logging.Platform.MinLevel != newCfg.Logging.Platform.MinLevel ||
		oldCfg.Logging.Platform.RatePerSec != newCfg.Logging.Platform.RatePerSec {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.platform_enabled", newCfg.Logging.Platform.Enabled),
		)
	}

	// Storage (persistence)
	if strings.TrimSpace(oldCfg.Storage.Driver) != strings.TrimSpace(newCfg.Storage.Driver) ||
		strings.TrimSpace(oldCfg.Storage.BusyTimeout) != strings.TrimSpace(newCfg.Storage.BusyTimeout) ||
		(strings.TrimSpace(oldCfg.Storage.Path) != "") != (strings.TrimSpace(newCfg.Storage.Path) != "") {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(newCfg.Storage.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(newCfg.Storage.Path) != ""),
			logx.String("storage.busy_timeout", strings.TrimSpace(newCfg.Storage.BusyTimeout)),
		)
	}

	// Scheduler
	if oldCfg.Scheduler.Enabled != newCfg.Scheduler.Enabled ||
		strings.TrimSpace(oldCfg.Scheduler.Timezone) != strings.TrimSpace(newCfg.Scheduler.Timezone) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.timezone", strings.TrimSpace(newCfg.Scheduler.Timezone)),
		)
	}

	// Rooms
	if oldCfg.Rooms != newCfg.Rooms {
		changed = append(changed, "rooms")
		attrs = append(attrs,
			logx.Bool("rooms.warm_up_on_start", newCfg.Rooms.WarmUpOnStart),
			logx.Bool("rooms.prompts_enabled", newCfg.Rooms.PromptsEnabled),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
