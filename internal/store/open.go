package store

import (
	"context"
	"errors"
	"strings"

	logx "roomkeeper/pkg/logx"
)

// Store is the persistence API used by the room controller and tasks.
type Store interface {
	InsertLobby(ctx context.Context, l Lobby) error
	Lobbies(ctx context.Context) ([]Lobby, error)
	RemoveLobby(ctx context.Context, roomID int64) error

	InsertTempRoom(ctx context.Context, r TempRoom) error
	TempRooms(ctx context.Context) ([]TempRoom, error)
	RemoveTempRoom(ctx context.Context, roomID int64) error
	SetPersistent(ctx context.Context, roomID int64, persistent bool) error
	SetArchived(ctx context.Context, roomID int64, archived bool) error
	// ArchivedRoom finds the archived room a user left behind under a lobby.
	ArchivedRoom(ctx context.Context, guildID, ownerID, lobbyID int64) (TempRoom, bool, error)

	ArchiveCategory(ctx context.Context, guildID int64) (int64, bool, error)
	SetArchiveCategory(ctx context.Context, guildID, categoryID int64) error
	RemoveArchiveCategory(ctx context.Context, guildID int64) error

	UpsertBirthday(ctx context.Context, b Birthday) error
	Birthday(ctx context.Context, userID int64) (Birthday, bool, error)
	BirthdaysOn(ctx context.Context, month, day int) ([]Birthday, error)

	UpsertBirthdayChannel(ctx context.Context, c BirthdayChannel) error
	BirthdayChannel(ctx context.Context, guildID int64) (BirthdayChannel, bool, error)
	RemoveBirthdayChannel(ctx context.Context, guildID int64) error
	// BirthdayRole returns the configured birthday role for a guild, if any.
	BirthdayRole(ctx context.Context, guildID int64) (int64, bool, error)

	Schedules(ctx context.Context) ([]Schedule, error)
	UpsertSchedule(ctx context.Context, s Schedule) (int64, error)
	SetScheduleEnabled(ctx context.Context, id int64, enabled bool) error

	GuildTimezone(ctx context.Context, guildID int64) (string, bool, error)
	SetGuildTimezone(ctx context.Context, guildID int64, tz string) error

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
}
