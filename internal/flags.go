package internal

import "log/slog"

// Flags gate the optional startup phases.
type Flags struct {
	Clear            bool
	Migrate          bool
	Seed             bool
	Rollback         bool
	DisableWebserver bool
}

// Flags returns a copy of the current flags.
func (a *App) Flags() Flags {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flags
}

// Clear drops the database before it is started.
func (a *App) Clear() *App {
	return a.setFlag("clear", func(f *Flags) { f.Clear = true })
}

// Migrate applies pending migrations after the database starts.
func (a *App) Migrate() *App {
	return a.setFlag("migrate", func(f *Flags) { f.Migrate = true })
}

// Seed runs the registered seeds after controllers are attached.
func (a *App) Seed() *App {
	return a.setFlag("seed", func(f *Flags) { f.Seed = true })
}

// Rollback rolls back the most recent migration before migrating.
func (a *App) Rollback() *App {
	return a.setFlag("rollback", func(f *Flags) { f.Rollback = true })
}

// DisableWebserver skips the webserver, sockets, channels and routes.
// Maintenance commands use it so they do not bind a port.
func (a *App) DisableWebserver() *App {
	return a.setFlag("disableWebserver", func(f *Flags) { f.DisableWebserver = true })
}

// SetFlags replaces all flags at once.
func (a *App) SetFlags(f Flags) *App {
	return a.setFlag("all", func(dst *Flags) { *dst = f })
}

// setFlag applies fn while the app is still in the Created state.
// Flags are frozen once Start begins.
func (a *App) setFlag(name string, fn func(*Flags)) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateCreated {
		a.logger.Warn("flag ignored after start", slog.String("flag", name), slog.String("state", a.state.String()))
		return a
	}
	fn(&a.flags)
	return a
}
