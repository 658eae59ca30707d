package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "roomkeeper/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Lobbies ----

func (s *sqliteStore) InsertLobby(ctx context.Context, l Lobby) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lobby_rooms(room_id, guild_id) VALUES(?,?)
		 ON CONFLICT(room_id) DO UPDATE SET guild_id=excluded.guild_id`,
		l.RoomID, l.GuildID,
	)
	return err
}

func (s *sqliteStore) Lobbies(ctx context.Context) ([]Lobby, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_id, guild_id FROM lobby_rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lobby
	for rows.Next() {
		var l Lobby
		if err := rows.Scan(&l.RoomID, &l.GuildID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RemoveLobby(ctx context.Context, roomID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lobby_rooms WHERE room_id = ?`, roomID)
	return err
}

// ---- Temp rooms ----

func (s *sqliteStore) InsertTempRoom(ctx context.Context, r TempRoom) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO temp_rooms(room_id, guild_id, owner_id, lobby_room_id, is_persistent, is_archived)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(room_id) DO UPDATE SET
		   guild_id=excluded.guild_id,
		   owner_id=excluded.owner_id,
		   lobby_room_id=excluded.lobby_room_id,
		   is_persistent=excluded.is_persistent,
		   is_archived=excluded.is_archived`,
		r.RoomID, r.GuildID, r.OwnerID, r.LobbyID, boolInt(r.Persistent), boolInt(r.Archived),
	)
	return err
}

func (s *sqliteStore) TempRooms(ctx context.Context) ([]TempRoom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, guild_id, owner_id, lobby_room_id, is_persistent, is_archived FROM temp_rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TempRoom
	for rows.Next() {
		r, err := scanTempRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RemoveTempRoom(ctx context.Context, roomID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM temp_rooms WHERE room_id = ?`, roomID)
	return err
}

func (s *sqliteStore) SetPersistent(ctx context.Context, roomID int64, persistent bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE temp_rooms SET is_persistent = ? WHERE room_id = ?`, boolInt(persistent), roomID)
	return err
}

func (s *sqliteStore) SetArchived(ctx context.Context, roomID int64, archived bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE temp_rooms SET is_archived = ? WHERE room_id = ?`, boolInt(archived), roomID)
	return err
}

func (s *sqliteStore) ArchivedRoom(ctx context.Context, guildID, ownerID, lobbyID int64) (TempRoom, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT room_id, guild_id, owner_id, lobby_room_id, is_persistent, is_archived
		 FROM temp_rooms
		 WHERE guild_id = ? AND owner_id = ? AND lobby_room_id = ? AND is_archived = 1
		 LIMIT 1`,
		guildID, ownerID, lobbyID,
	)
	r, err := scanTempRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TempRoom{}, false, nil
	}
	if err != nil {
		return TempRoom{}, false, err
	}
	return r, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTempRoom(row rowScanner) (TempRoom, error) {
	var r TempRoom
	var persistent, archived int
	err := row.Scan(&r.RoomID, &r.GuildID, &r.OwnerID, &r.LobbyID, &persistent, &archived)
	if err != nil {
		return TempRoom{}, err
	}
	r.Persistent = persistent != 0
	r.Archived = archived != 0
	return r, nil
}

// ---- Archive categories ----

func (s *sqliteStore) ArchiveCategory(ctx context.Context, guildID int64) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT category_id FROM archive_categories WHERE guild_id = ?`, guildID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *sqliteStore) SetArchiveCategory(ctx context.Context, guildID, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO archive_categories(guild_id, category_id) VALUES(?,?)
		 ON CONFLICT(guild_id) DO UPDATE SET category_id=excluded.category_id`,
		guildID, categoryID,
	)
	return err
}

func (s *sqliteStore) RemoveArchiveCategory(ctx context.Context, guildID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM archive_categories WHERE guild_id = ?`, guildID)
	return err
}

// ---- Birthdays ----

func (s *sqliteStore) UpsertBirthday(ctx context.Context, b Birthday) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO birthdays(user_id, birth_month, birth_day, birth_year, updated_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   birth_month=excluded.birth_month,
		   birth_day=excluded.birth_day,
		   birth_year=excluded.birth_year,
		   updated_at=excluded.updated_at`,
		b.UserID, b.Month, b.Day, nullID(int64(b.Year)), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) Birthday(ctx context.Context, userID int64) (Birthday, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, birth_month, birth_day, birth_year FROM birthdays WHERE user_id = ?`, userID)
	b, err := scanBirthday(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Birthday{}, false, nil
	}
	if err != nil {
		return Birthday{}, false, err
	}
	return b, true, nil
}

func (s *sqliteStore) BirthdaysOn(ctx context.Context, month, day int) ([]Birthday, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, birth_month, birth_day, birth_year FROM birthdays
		 WHERE birth_month = ? AND birth_day = ?`, month, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Birthday
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBirthday(row rowScanner) (Birthday, error) {
	var b Birthday
	var year sql.NullInt64
	if err := row.Scan(&b.UserID, &b.Month, &b.Day, &year); err != nil {
		return Birthday{}, err
	}
	if year.Valid {
		b.Year = int(year.Int64)
	}
	return b, nil
}

// ---- Birthday channels ----

func (s *sqliteStore) UpsertBirthdayChannel(ctx context.Context, c BirthdayChannel) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO birthday_channels(guild_id, room_id, role_id, custom_message,
		   custom_message_without_age, custom_header, custom_footer)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		   room_id=excluded.room_id,
		   role_id=excluded.role_id,
		   custom_message=excluded.custom_message,
		   custom_message_without_age=excluded.custom_message_without_age,
		   custom_header=excluded.custom_header,
		   custom_footer=excluded.custom_footer`,
		c.GuildID, c.RoomID, nullID(c.RoleID),
		nullStr(c.CustomMessage), nullStr(c.CustomMessageNoAge),
		nullStr(c.CustomHeader), nullStr(c.CustomFooter),
	)
	return err
}

func (s *sqliteStore) BirthdayChannel(ctx context.Context, guildID int64) (BirthdayChannel, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guild_id, room_id, role_id, custom_message, custom_message_without_age,
		   custom_header, custom_footer
		 FROM birthday_channels WHERE guild_id = ?`, guildID)

	var c BirthdayChannel
	var roleID sql.NullInt64
	var msg, msgNoAge, header, footer sql.NullString
	err := row.Scan(&c.GuildID, &c.RoomID, &roleID, &msg, &msgNoAge, &header, &footer)
	if errors.Is(err, sql.ErrNoRows) {
		return BirthdayChannel{}, false, nil
	}
	if err != nil {
		return BirthdayChannel{}, false, err
	}
	c.RoleID = roleID.Int64
	c.CustomMessage = msg.String
	c.CustomMessageNoAge = msgNoAge.String
	c.CustomHeader = header.String
	c.CustomFooter = footer.String
	return c, true, nil
}

func (s *sqliteStore) RemoveBirthdayChannel(ctx context.Context, guildID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM birthday_channels WHERE guild_id = ?`, guildID)
	return err
}

func (s *sqliteStore) BirthdayRole(ctx context.Context, guildID int64) (int64, bool, error) {
	var roleID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT role_id FROM birthday_channels WHERE guild_id = ?`, guildID).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !roleID.Valid || roleID.Int64 == 0 {
		return 0, false, nil
	}
	return roleID.Int64, true, nil
}

// ---- Schedules ----

func (s *sqliteStore) Schedules(ctx context.Context) ([]Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, task_type, cron_expression, enabled, updated_at FROM schedules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var sc Schedule
		var enabled int
		var updated string
		if err := rows.Scan(&sc.ID, &sc.GuildID, &sc.TaskType, &sc.CronExpr, &enabled, &updated); err != nil {
			return nil, err
		}
		sc.Enabled = enabled != 0
		sc.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpsertSchedule(ctx context.Context, sc Schedule) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules(guild_id, task_type, cron_expression, enabled, updated_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(guild_id, task_type) DO UPDATE SET
		   cron_expression=excluded.cron_expression,
		   enabled=excluded.enabled,
		   updated_at=excluded.updated_at`,
		sc.GuildID, sc.TaskType, sc.CronExpr, boolInt(sc.Enabled), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		return id, nil
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM schedules WHERE guild_id = ? AND task_type = ?`,
		sc.GuildID, sc.TaskType).Scan(&id)
	return id, err
}

func (s *sqliteStore) SetScheduleEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolInt(enabled), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// ---- Guild settings ----

func (s *sqliteStore) GuildTimezone(ctx context.Context, guildID int64) (string, bool, error) {
	var tz sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT timezone FROM guild_settings WHERE guild_id = ?`, guildID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !tz.Valid || strings.TrimSpace(tz.String) == "" {
		return "", false, nil
	}
	return tz.String, true, nil
}

func (s *sqliteStore) SetGuildTimezone(ctx context.Context, guildID int64, tz string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_settings(guild_id, timezone) VALUES(?,?)
		 ON CONFLICT(guild_id) DO UPDATE SET timezone=excluded.timezone`,
		guildID, nullStr(tz),
	)
	return err
}

// ---- helpers ----

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullID(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
