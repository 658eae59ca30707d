package store

import "time"

// Config configures persistence.
//
// Driver values:
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Task types executed by the schedule engine.
const (
	TaskBirthdayNotify   = "birthday_notify"
	TaskBirthdayRoleSync = "birthday_role_sync"
)

// Lobby is a voice room that spawns temp rooms when joined.
type Lobby struct {
	RoomID  int64
	GuildID int64
}

// TempRoom is a bot-created voice room owned by a single user.
type TempRoom struct {
	RoomID     int64
	GuildID    int64
	OwnerID    int64
	LobbyID    int64
	Persistent bool
	Archived   bool
}

// Birthday is a user's recurring birthday. Year 0 means unknown,
// in which case no age is ever computed.
type Birthday struct {
	UserID int64
	Month  int
	Day    int
	Year   int
}

// BirthdayChannel is a guild's birthday announcement configuration.
// RoleID 0 means no birthday role; empty template strings fall back
// to the built-in defaults.
type BirthdayChannel struct {
	GuildID              int64
	RoomID               int64
	RoleID               int64
	CustomMessage        string
	CustomMessageNoAge   string
	CustomHeader         string
	CustomFooter         string
}

// Schedule is a cron-driven task registration. GuildID 0 means the task
// runs across every guild the bot can see.
type Schedule struct {
	ID        int64
	GuildID   int64
	TaskType  string
	CronExpr  string
	Enabled   bool
	UpdatedAt time.Time
}
