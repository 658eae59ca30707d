// Package store persists lobby registrations, temp rooms, birthdays and
// schedules. The room controller treats it as the source of truth that the
// in-memory cache is rebuilt from on startup.
package store
