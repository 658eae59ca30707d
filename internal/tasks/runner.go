// Package tasks implements the scheduled birthday jobs: the combined
// announcement message and the birthday role reconciliation.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"roomkeeper/internal/dates"
	"roomkeeper/internal/platform"
	"roomkeeper/internal/store"
	logx "roomkeeper/pkg/logx"
)

// TaskStore is the slice of the store the runner needs.
type TaskStore interface {
	BirthdaysOn(ctx context.Context, month, day int) ([]store.Birthday, error)
	BirthdayChannel(ctx context.Context, guildID int64) (store.BirthdayChannel, bool, error)
	BirthdayRole(ctx context.Context, guildID int64) (int64, bool, error)
}

type Runner struct {
	client platform.Client
	store  TaskStore
	log    logx.Logger

	now func() time.Time
}

type Option func(*Runner)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(client platform.Client, st TaskStore, log logx.Logger, opts ...Option) *Runner {
	r := &Runner{
		client: client,
		store:  st,
		log:    log.With(logx.String("component", "tasks")),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run dispatches a schedule to its task. Guild id 0 means every guild the
// bot can see.
func (r *Runner) Run(ctx context.Context, sched store.Schedule) error {
	switch sched.TaskType {
	case store.TaskBirthdayNotify:
		if sched.GuildID == 0 {
			return r.NotifyBirthdaysAll(ctx)
		}
		return r.NotifyBirthdays(ctx, sched.GuildID)
	case store.TaskBirthdayRoleSync:
		if sched.GuildID == 0 {
			return r.SyncBirthdayRolesAll(ctx)
		}
		return r.SyncBirthdayRoles(ctx, sched.GuildID)
	default:
		return fmt.Errorf("unknown task type %q", sched.TaskType)
	}
}

// guildMember pairs a resolved member with their birthday record.
type guildMember struct {
	member platform.Member
	bday   store.Birthday
}

// NotifyBirthdays posts one combined announcement for every guild member
// whose birthday is today. Without a configured announcement channel the
// task is a no-op.
func (r *Runner) NotifyBirthdays(ctx context.Context, guildID int64) error {
	now := r.now().UTC()
	month, day := dates.MonthDay(now)

	birthdays, err := r.store.BirthdaysOn(ctx, month, day)
	if err != nil {
		return fmt.Errorf("birthdays lookup: %w", err)
	}
	if len(birthdays) == 0 {
		r.log.Debug("no birthdays today", logx.Int64("guild_id", guildID))
		return nil
	}

	cfg, ok, err := r.store.BirthdayChannel(ctx, guildID)
	if err != nil {
		return fmt.Errorf("birthday channel lookup: %w", err)
	}
	if !ok {
		r.log.Debug("no birthday channel configured", logx.Int64("guild_id", guildID))
		return nil
	}

	// Keep only users who are actually in this guild. Lookup failures drop
	// the user from the announcement rather than failing the task.
	var celebrants []guildMember
	for _, b := range birthdays {
		m, err := r.client.Member(ctx, guildID, b.UserID)
		if err != nil {
			continue
		}
		celebrants = append(celebrants, guildMember{member: m, bday: b})
	}
	if len(celebrants) == 0 {
		r.log.Debug("no birthday users in guild", logx.Int64("guild_id", guildID))
		return nil
	}

	dateStr := dates.FormatDisplay(month, day)
	entries := lo.Map(celebrants, func(c guildMember, _ int) string {
		ageInfo := AgeInfo(c.bday.Year, now.Year())
		return BuildEntry(c.member.DisplayName, mention(c.bday.UserID), ageInfo,
			cfg.CustomMessage, cfg.CustomMessageNoAge, dateStr)
	})

	msg := CombineMessage(
		headerOr(cfg.CustomHeader),
		strings.Join(entries, "\n"),
		footerOr(cfg.CustomFooter),
	)

	if _, err := r.client.SendMessage(ctx, cfg.RoomID, msg); err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}

	r.log.Info("sent birthday announcement",
		logx.Int64("guild_id", guildID), logx.Int("celebrants", len(celebrants)))
	return nil
}

// SyncBirthdayRoles reconciles the guild's birthday role against today's
// birthdays. Per-member failures are logged and skipped so one bad member
// doesn't strand the rest.
func (r *Runner) SyncBirthdayRoles(ctx context.Context, guildID int64) error {
	month, day := dates.MonthDay(r.now().UTC())

	birthdays, err := r.store.BirthdaysOn(ctx, month, day)
	if err != nil {
		return fmt.Errorf("birthdays lookup: %w", err)
	}
	celebrating := lo.SliceToMap(birthdays, func(b store.Birthday) (int64, struct{}) {
		return b.UserID, struct{}{}
	})

	roleID, ok, err := r.store.BirthdayRole(ctx, guildID)
	if err != nil {
		return fmt.Errorf("birthday role lookup: %w", err)
	}
	if !ok {
		r.log.Debug("no birthday role configured", logx.Int64("guild_id", guildID))
		return nil
	}

	members, err := r.client.Members(ctx, guildID)
	if err != nil {
		return fmt.Errorf("member list: %w", err)
	}

	for _, m := range members {
		_, hasBirthday := celebrating[m.UserID]
		hasRole := lo.Contains(m.RoleIDs, roleID)

		switch DetermineRoleAction(hasBirthday, hasRole) {
		case AddRole:
			if err := r.client.AddRole(ctx, guildID, m.UserID, roleID); err != nil {
				r.log.Error("role add failed",
					logx.Int64("guild_id", guildID), logx.Int64("user_id", m.UserID), logx.Err(err))
			}
		case RemoveRole:
			if err := r.client.RemoveRole(ctx, guildID, m.UserID, roleID); err != nil {
				r.log.Error("role remove failed",
					logx.Int64("guild_id", guildID), logx.Int64("user_id", m.UserID), logx.Err(err))
			}
		}
	}

	r.log.Info("birthday role sync completed",
		logx.Int64("guild_id", guildID), logx.Int("celebrants", len(celebrating)))
	return nil
}

// NotifyBirthdaysAll runs the announcement task for every guild. Per-guild
// failures are logged and skipped.
func (r *Runner) NotifyBirthdaysAll(ctx context.Context) error {
	guilds, err := r.client.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("guild list: %w", err)
	}
	for _, g := range guilds {
		if err := r.NotifyBirthdays(ctx, g); err != nil {
			r.log.Error("birthday notify failed", logx.Int64("guild_id", g), logx.Err(err))
		}
	}
	return nil
}

// SyncBirthdayRolesAll runs the role sync for every guild.
func (r *Runner) SyncBirthdayRolesAll(ctx context.Context) error {
	guilds, err := r.client.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("guild list: %w", err)
	}
	for _, g := range guilds {
		if err := r.SyncBirthdayRoles(ctx, g); err != nil {
			r.log.Error("birthday role sync failed", logx.Int64("guild_id", g), logx.Err(err))
		}
	}
	return nil
}
