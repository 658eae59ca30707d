package store

import (
	"context"
	"path/filepath"
	"testing"

	logx "roomkeeper/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "rk.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatalf("expected unknown-driver error")
	}
}

func TestLobbyRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.InsertLobby(ctx, Lobby{RoomID: 10, GuildID: 1}); err != nil {
		t.Fatalf("InsertLobby: %v", err)
	}
	if err := st.InsertLobby(ctx, Lobby{RoomID: 11, GuildID: 1}); err != nil {
		t.Fatalf("InsertLobby: %v", err)
	}

	ls, err := st.Lobbies(ctx)
	if err != nil {
		t.Fatalf("Lobbies: %v", err)
	}
	if len(ls) != 2 {
		t.Fatalf("got %d lobbies, want 2", len(ls))
	}

	if err := st.RemoveLobby(ctx, 10); err != nil {
		t.Fatalf("RemoveLobby: %v", err)
	}
	ls, _ = st.Lobbies(ctx)
	if len(ls) != 1 || ls[0].RoomID != 11 {
		t.Fatalf("after remove: %+v", ls)
	}
}

func TestTempRoomFlagsAndArchivedLookup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	r := TempRoom{RoomID: 100, GuildID: 1, OwnerID: 7, LobbyID: 10}
	if err := st.InsertTempRoom(ctx, r); err != nil {
		t.Fatalf("InsertTempRoom: %v", err)
	}

	// Not archived yet: lookup misses.
	if _, ok, err := st.ArchivedRoom(ctx, 1, 7, 10); err != nil || ok {
		t.Fatalf("ArchivedRoom before archive: ok=%v err=%v", ok, err)
	}

	if err := st.SetPersistent(ctx, 100, true); err != nil {
		t.Fatalf("SetPersistent: %v", err)
	}
	if err := st.SetArchived(ctx, 100, true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}

	got, ok, err := st.ArchivedRoom(ctx, 1, 7, 10)
	if err != nil || !ok {
		t.Fatalf("ArchivedRoom: ok=%v err=%v", ok, err)
	}
	if !got.Persistent || !got.Archived || got.RoomID != 100 {
		t.Fatalf("ArchivedRoom = %+v", got)
	}

	// Different owner misses.
	if _, ok, _ := st.ArchivedRoom(ctx, 1, 8, 10); ok {
		t.Fatalf("lookup should be scoped to owner")
	}

	if err := st.RemoveTempRoom(ctx, 100); err != nil {
		t.Fatalf("RemoveTempRoom: %v", err)
	}
	rooms, _ := st.TempRooms(ctx)
	if len(rooms) != 0 {
		t.Fatalf("rooms after remove: %+v", rooms)
	}
}

func TestArchiveCategory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.ArchiveCategory(ctx, 1); err != nil || ok {
		t.Fatalf("empty lookup: ok=%v err=%v", ok, err)
	}
	if err := st.SetArchiveCategory(ctx, 1, 555); err != nil {
		t.Fatalf("SetArchiveCategory: %v", err)
	}
	id, ok, err := st.ArchiveCategory(ctx, 1)
	if err != nil || !ok || id != 555 {
		t.Fatalf("ArchiveCategory = (%d, %v, %v)", id, ok, err)
	}

	// Upsert replaces.
	if err := st.SetArchiveCategory(ctx, 1, 556); err != nil {
		t.Fatalf("SetArchiveCategory: %v", err)
	}
	id, _, _ = st.ArchiveCategory(ctx, 1)
	if id != 556 {
		t.Fatalf("after upsert: %d", id)
	}

	if err := st.RemoveArchiveCategory(ctx, 1); err != nil {
		t.Fatalf("RemoveArchiveCategory: %v", err)
	}
	if _, ok, _ := st.ArchiveCategory(ctx, 1); ok {
		t.Fatalf("category should be gone")
	}
}

func TestBirthdays(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertBirthday(ctx, Birthday{UserID: 1, Month: 3, Day: 15, Year: 1990}); err != nil {
		t.Fatalf("UpsertBirthday: %v", err)
	}
	if err := st.UpsertBirthday(ctx, Birthday{UserID: 2, Month: 3, Day: 15}); err != nil {
		t.Fatalf("UpsertBirthday: %v", err)
	}
	if err := st.UpsertBirthday(ctx, Birthday{UserID: 3, Month: 6, Day: 1, Year: 2000}); err != nil {
		t.Fatalf("UpsertBirthday: %v", err)
	}

	b, ok, err := st.Birthday(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("Birthday: ok=%v err=%v", ok, err)
	}
	if b.Year != 0 {
		t.Fatalf("NULL birth_year should scan as 0, got %d", b.Year)
	}

	on, err := st.BirthdaysOn(ctx, 3, 15)
	if err != nil {
		t.Fatalf("BirthdaysOn: %v", err)
	}
	if len(on) != 2 {
		t.Fatalf("BirthdaysOn(3,15) = %+v, want 2 entries", on)
	}

	// Upsert replaces the date.
	if err := st.UpsertBirthday(ctx, Birthday{UserID: 1, Month: 4, Day: 1, Year: 1990}); err != nil {
		t.Fatalf("UpsertBirthday: %v", err)
	}
	on, _ = st.BirthdaysOn(ctx, 3, 15)
	if len(on) != 1 {
		t.Fatalf("after move: %+v", on)
	}
}

func TestBirthdayChannelAndRole(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// No role configured: RoleID 0 stored as NULL.
	if err := st.UpsertBirthdayChannel(ctx, BirthdayChannel{GuildID: 1, RoomID: 42}); err != nil {
		t.Fatalf("UpsertBirthdayChannel: %v", err)
	}
	if _, ok, err := st.BirthdayRole(ctx, 1); err != nil || ok {
		t.Fatalf("BirthdayRole without role: ok=%v err=%v", ok, err)
	}

	c := BirthdayChannel{
		GuildID: 1, RoomID: 42, RoleID: 900,
		CustomMessage: "hi {mention}{age}", CustomHeader: "hdr",
	}
	if err := st.UpsertBirthdayChannel(ctx, c); err != nil {
		t.Fatalf("UpsertBirthdayChannel: %v", err)
	}

	got, ok, err := st.BirthdayChannel(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("BirthdayChannel: ok=%v err=%v", ok, err)
	}
	if got.RoleID != 900 || got.CustomMessage != c.CustomMessage || got.CustomHeader != "hdr" {
		t.Fatalf("BirthdayChannel = %+v", got)
	}
	if got.CustomFooter != "" || got.CustomMessageNoAge != "" {
		t.Fatalf("unset templates should scan empty: %+v", got)
	}

	roleID, ok, err := st.BirthdayRole(ctx, 1)
	if err != nil || !ok || roleID != 900 {
		t.Fatalf("BirthdayRole = (%d, %v, %v)", roleID, ok, err)
	}

	if err := st.RemoveBirthdayChannel(ctx, 1); err != nil {
		t.Fatalf("RemoveBirthdayChannel: %v", err)
	}
	if _, ok, _ := st.BirthdayChannel(ctx, 1); ok {
		t.Fatalf("channel config should be gone")
	}
}

func TestSchedules(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id1, err := st.UpsertSchedule(ctx, Schedule{GuildID: 1, TaskType: TaskBirthdayNotify, CronExpr: "0 0 8 * * *", Enabled: true})
	if err != nil {
		t.Fatalf("UpsertSchedule: %v", err)
	}
	if id1 == 0 {
		t.Fatalf("expected non-zero id")
	}

	// Global schedule (guild 0) coexists with the guild-scoped one.
	id2, err := st.UpsertSchedule(ctx, Schedule{GuildID: 0, TaskType: TaskBirthdayNotify, CronExpr: "0 0 9 * * *", Enabled: true})
	if err != nil {
		t.Fatalf("UpsertSchedule global: %v", err)
	}
	if id2 == id1 {
		t.Fatalf("global and guild-scoped schedules should be distinct rows")
	}

	// Same scope upserts in place.
	id3, err := st.UpsertSchedule(ctx, Schedule{GuildID: 1, TaskType: TaskBirthdayNotify, CronExpr: "0 30 8 * * *", Enabled: false})
	if err != nil {
		t.Fatalf("UpsertSchedule conflict: %v", err)
	}
	if id3 != id1 {
		t.Fatalf("upsert should keep id %d, got %d", id1, id3)
	}

	all, err := st.Schedules(ctx)
	if err != nil {
		t.Fatalf("Schedules: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d schedules, want 2", len(all))
	}
	for _, sc := range all {
		if sc.ID == id1 {
			if sc.CronExpr != "0 30 8 * * *" || sc.Enabled {
				t.Fatalf("upsert did not apply: %+v", sc)
			}
		}
	}

	if err := st.SetScheduleEnabled(ctx, id1, true); err != nil {
		t.Fatalf("SetScheduleEnabled: %v", err)
	}
	all, _ = st.Schedules(ctx)
	for _, sc := range all {
		if sc.ID == id1 && !sc.Enabled {
			t.Fatalf("schedule %d should be enabled", id1)
		}
	}
}

func TestGuildTimezone(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.GuildTimezone(ctx, 1); err != nil || ok {
		t.Fatalf("empty lookup: ok=%v err=%v", ok, err)
	}
	if err := st.SetGuildTimezone(ctx, 1, "Europe/Berlin"); err != nil {
		t.Fatalf("SetGuildTimezone: %v", err)
	}
	tz, ok, err := st.GuildTimezone(ctx, 1)
	if err != nil || !ok || tz != "Europe/Berlin" {
		t.Fatalf("GuildTimezone = (%q, %v, %v)", tz, ok, err)
	}
}
