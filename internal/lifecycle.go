package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/rapid/pkg/runorder"
)

// State is a lifecycle state of the App.
type State int

const (
	StateCreated State = iota
	StateDiscovering
	StateHooksResolving
	StateDatabaseClearing
	StateDatabaseStarting
	StateRollingBack
	StateMigrating
	StateModelsAttaching
	StateActionsAttaching
	StateControllersAttaching
	StateSeeding
	StateMiddlewareAttaching
	StateWebserverStarting
	StateSocketStarting
	StateChannelsAttaching
	StateRoutesAttaching
	StateWebserverListening
	StateStarted
	StateStopping
	StateStopped
	StateFailed
)

var stateNames = [...]string{
	StateCreated:              "created",
	StateDiscovering:          "discovering",
	StateHooksResolving:       "hooks resolving",
	StateDatabaseClearing:     "database clearing",
	StateDatabaseStarting:     "database starting",
	StateRollingBack:          "rolling back",
	StateMigrating:            "migrating",
	StateModelsAttaching:      "models attaching",
	StateActionsAttaching:     "actions attaching",
	StateControllersAttaching: "controllers attaching",
	StateSeeding:              "seeding",
	StateMiddlewareAttaching:  "middleware attaching",
	StateWebserverStarting:    "webserver starting",
	StateSocketStarting:       "socket starting",
	StateChannelsAttaching:    "channels attaching",
	StateRoutesAttaching:      "routes attaching",
	StateWebserverListening:   "webserver listening",
	StateStarted:              "started",
	StateStopping:             "stopping",
	StateStopped:              "stopped",
	StateFailed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// advance moves to s. Once Stop has begun it leaves the state alone and
// returns ErrStopped, so the remaining startup phases do not run.
func (a *App) advance(s State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopping() {
		return ErrStopped
	}
	a.state = s
	return nil
}

// stopping reports whether Stop has begun. Callers hold a.mu.
func (a *App) stopping() bool {
	return a.state == StateStopping || a.state == StateStopped
}

// Start walks the startup phases in order: discovery and config, hooks,
// database, models, actions, controllers, seeds, then the webserver with
// sockets, channels and routes, and finally listening.
// Optional phases are skipped according to the flags. A failing phase
// leaves the App in StateFailed; call Stop to release what was started.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateCreated {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.state = StateDiscovering
	flags := a.flags
	a.mu.Unlock()

	err := a.start(ctx, flags)

	a.mu.Lock()
	stopped := a.stopping()
	a.mu.Unlock()
	if stopped {
		// Stop ran concurrently and only saw what had started by then.
		a.stopLate(ctx)
		if err == nil {
			err = ErrStopped
		}
		return err
	}

	if err != nil {
		_ = a.advance(StateFailed)
		a.logger.ErrorContext(ctx, "startup failed", slog.Any("error", err))
		return err
	}
	return nil
}

func (a *App) start(ctx context.Context, flags Flags) error {
	if err := a.discover(ctx); err != nil {
		return &PhaseError{Err: err, State: StateDiscovering}
	}

	if err := a.advance(StateHooksResolving); err != nil {
		return &PhaseError{Err: err, State: StateHooksResolving}
	}
	if err := a.resolveHooks(ctx); err != nil {
		return &PhaseError{Err: err, State: StateHooksResolving}
	}
	if err := a.emit(ctx, RapidWillStart); err != nil {
		return &PhaseError{Err: err, State: StateHooksResolving}
	}

	if !a.dbDisabled && a.db != nil {
		if flags.Clear {
			if err := a.phase(ctx, StateDatabaseClearing, DatabaseWillClear, DatabaseDidClear, a.db.Drop); err != nil {
				return err
			}
		}
		if err := a.phase(ctx, StateDatabaseStarting, DatabaseWillStart, DatabaseDidStart, func(ctx context.Context) error {
			a.markAttempted(collabDatabase)
			return a.db.Start(ctx)
		}); err != nil {
			return err
		}
		if flags.Rollback {
			if err := a.phase(ctx, StateRollingBack, RollbackWillRun, RollbackDidRun, a.rollback); err != nil {
				return err
			}
		}
		if flags.Migrate {
			if err := a.phase(ctx, StateMigrating, MigrationsWillRun, MigrationsDidRun, a.migrate); err != nil {
				return err
			}
		}
		if err := a.phase(ctx, StateModelsAttaching, ModelsWillAttach, ModelsDidAttach, a.resolveModels); err != nil {
			return err
		}
	}

	if err := a.phase(ctx, StateActionsAttaching, ActionsWillAttach, ActionsDidAttach, a.resolveActions); err != nil {
		return err
	}
	if err := a.phase(ctx, StateControllersAttaching, ControllersWillAttach, ControllersDidAttach, a.resolveControllers); err != nil {
		return err
	}
	if flags.Seed {
		if err := a.phase(ctx, StateSeeding, SeedsWillRun, SeedsDidRun, a.runSeeds); err != nil {
			return err
		}
	}

	if !flags.DisableWebserver && a.webserver != nil {
		if err := a.startWebserver(ctx); err != nil {
			return err
		}
	}

	if err := a.advance(StateStarted); err != nil {
		return &PhaseError{Err: err, State: StateStarted}
	}
	if err := a.emit(ctx, RapidDidStart); err != nil {
		return &PhaseError{Err: err, State: StateStarted}
	}
	a.logger.InfoContext(ctx, "rapid started", slog.String("env", a.env.String()))
	return nil
}

func (a *App) startWebserver(ctx context.Context) error {
	ws := a.webserver
	if err := a.phase(ctx, StateMiddlewareAttaching, MiddlewareWillAttach, MiddlewareDidAttach, func(context.Context) error {
		ws.Use(a.middlewares...)
		return nil
	}); err != nil {
		return err
	}
	if err := a.phase(ctx, StateWebserverStarting, WebserverWillStart, WebserverDidStart, func(ctx context.Context) error {
		a.markAttempted(collabWebserver)
		return ws.Start(ctx)
	}); err != nil {
		return err
	}

	if err := a.prepareSockets(ctx); err != nil {
		return &PhaseError{Err: err, State: StateSocketStarting}
	}
	if a.sockets != nil {
		if err := a.phase(ctx, StateSocketStarting, SocketWillStart, SocketDidStart, func(ctx context.Context) error {
			a.markAttempted(collabSockets)
			return a.sockets.Start(ctx, ws)
		}); err != nil {
			return err
		}
		if err := a.phase(ctx, StateChannelsAttaching, ChannelsWillAttach, ChannelsDidAttach, a.resolveChannels); err != nil {
			return err
		}
	} else if len(a.channels) > 0 {
		a.logger.WarnContext(ctx, "channels skipped, sockets are disabled", slog.Int("count", len(a.channels)))
	}

	if err := a.phase(ctx, StateRoutesAttaching, RoutesWillAttach, RoutesDidAttach, a.resolveRoutes); err != nil {
		return err
	}
	return a.phase(ctx, StateWebserverListening, WebserverWillListen, WebserverDidListen, ws.Listen)
}

// phase runs fn between the Will and Did events of state.
// It fails with ErrStopped when Stop begins before or while fn runs.
func (a *App) phase(ctx context.Context, state State, will, did Event, fn func(context.Context) error) error {
	if err := a.advance(state); err != nil {
		return &PhaseError{Err: err, State: state}
	}
	if err := a.emit(ctx, will); err != nil {
		return &PhaseError{Err: err, State: state}
	}
	if err := fn(ctx); err != nil {
		return &PhaseError{Err: err, State: state}
	}
	a.mu.Lock()
	stopped := a.stopping()
	a.mu.Unlock()
	if stopped {
		return &PhaseError{Err: ErrStopped, State: state}
	}
	if err := a.emit(ctx, did); err != nil {
		return &PhaseError{Err: err, State: state}
	}
	return nil
}

// discover runs the discovery queue, then resolves config and builds the
// collaborators that depend on it. Config is read-only afterwards.
func (a *App) discover(ctx context.Context) error {
	if a.envErr != nil {
		return a.envErr
	}
	if err := a.discoverer.Run(ctx); err != nil {
		return err
	}
	if err := a.resolveConfig(); err != nil {
		return err
	}
	if err := a.configureLogger(); err != nil {
		return err
	}
	return a.prepareCollaborators()
}

func (a *App) rollback(ctx context.Context) error {
	versions, err := a.db.Rollback(ctx)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "migrations rolled back", slog.Any("versions", versions))
	return nil
}

func (a *App) migrate(ctx context.Context) error {
	versions, err := a.db.Migrate(ctx)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "migrations applied", slog.Any("versions", versions))
	return nil
}

// runSeeds runs seeds grouped by run order; seeds in one group run
// concurrently and a group starts only after the previous one finished.
func (a *App) runSeeds(ctx context.Context) error {
	_, err := runorder.Run(ctx, runorder.Group(a.seeds), func(ctx context.Context, s Seed) (struct{}, error) {
		if s.Run == nil {
			return struct{}{}, nil
		}
		if err := s.Run(ctx, a); err != nil {
			return struct{}{}, &ResolveError{Err: err, Kind: KindSeed, Name: s.Name}
		}
		a.logger.DebugContext(ctx, "seed ran", slog.String("name", s.Name))
		return struct{}{}, nil
	})
	return err
}

func (a *App) markAttempted(c collaborator) {
	a.mu.Lock()
	a.attempted[c] = true
	a.mu.Unlock()
}

// Stop tears the App down: shutdown hooks run, then the socket server,
// webserver and database are stopped, each at most once and each
// regardless of the others failing. It is safe to call after a failed or
// missing Start and more than once. Teardown errors are logged and kept
// for StopErr; Stop itself returns nil.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateStopping || a.state == StateStopped {
		a.mu.Unlock()
		return nil
	}
	a.state = StateStopping
	attempted := make(map[collaborator]bool, len(a.attempted))
	for c, ok := range a.attempted {
		attempted[c] = ok
		a.tornDown[c] = ok
	}
	a.mu.Unlock()

	a.emitSafe(ctx, RapidWillStop)
	a.emitSafe(ctx, BeforeStop)

	var errs []error
	for _, c := range teardownOrder {
		if !attempted[c] {
			continue
		}
		if err := a.stopCollaborator(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}

	a.emitSafe(ctx, Stop)
	a.emitSafe(ctx, RapidDidStop)

	a.mu.Lock()
	a.stopErr = errors.Join(errs...)
	a.state = StateStopped
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "rapid stopped")
	return nil
}

var teardownOrder = []collaborator{collabSockets, collabWebserver, collabDatabase}

// stopLate stops collaborators started after a concurrent Stop took its
// snapshot of what to tear down.
func (a *App) stopLate(ctx context.Context) {
	a.mu.Lock()
	var late []collaborator
	for _, c := range teardownOrder {
		if a.attempted[c] && !a.tornDown[c] {
			a.tornDown[c] = true
			late = append(late, c)
		}
	}
	a.mu.Unlock()

	for _, c := range late {
		_ = a.stopCollaborator(context.WithoutCancel(ctx), c)
	}
}

// stopCollaborator stops c and logs a failure. The returned error names c.
func (a *App) stopCollaborator(ctx context.Context, c collaborator) error {
	err := guard(func() error {
		switch c {
		case collabSockets:
			return a.sockets.Stop(ctx)
		case collabWebserver:
			return a.webserver.Stop(ctx)
		case collabDatabase:
			return a.db.Stop(ctx)
		}
		return nil
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to stop collaborator",
			slog.String("collaborator", c.String()),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}

// StopErr returns the joined teardown errors of the last Stop.
func (a *App) StopErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopErr
}

// Run starts the App and blocks until ctx is canceled, SIGINT or SIGTERM
// arrives, or the webserver fails. It always stops the App before
// returning. With the webserver disabled it stops right after startup,
// which is how maintenance commands (migrate, seed) run.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		timeout := defaultShutdownTimeout
		if t, ok := a.webserver.(interface{ ShutdownTimeout() time.Duration }); ok {
			timeout = t.ShutdownTimeout()
		}
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	if a.Flags().DisableWebserver || a.webserver == nil {
		return nil
	}

	var errCh <-chan error
	if se, ok := a.webserver.(serveErrors); ok {
		errCh = se.Errors()
	}
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return nil
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}
