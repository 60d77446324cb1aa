package rapid

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AppFactory builds a fresh App for each command invocation.
type AppFactory func() *App

// NewCommand creates the root command of an application.
//
// Running the root command or "start" starts the App and serves until
// SIGINT or SIGTERM. The persistent --clear, --migrate, --seed and
// --rollback flags enable the matching startup phases. The maintenance
// subcommands "migrate", "seed", "rollback" and "clear" run their phase
// without the webserver and exit once startup completes.
func NewCommand(name string, newApp AppFactory) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:           name,
		Short:         "Run the " + name + " application",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, newApp, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.Clear, "clear", false, "drop the database before starting")
	pf.BoolVar(&flags.Migrate, "migrate", false, "apply pending migrations")
	pf.BoolVar(&flags.Seed, "seed", false, "run seeds")
	pf.BoolVar(&flags.Rollback, "rollback", false, "roll back the latest migration batch")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start the application and serve requests",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runApp(cmd, newApp, flags)
			},
		},
		maintenanceCommand("migrate", "Apply pending migrations and exit", newApp, &flags, func(f *Flags) { f.Migrate = true }),
		maintenanceCommand("seed", "Run seeds and exit", newApp, &flags, func(f *Flags) { f.Seed = true }),
		maintenanceCommand("rollback", "Roll back the latest migration batch and exit", newApp, &flags, func(f *Flags) { f.Rollback = true }),
		maintenanceCommand("clear", "Drop and recreate the database and exit", newApp, &flags, func(f *Flags) { f.Clear = true }),
	)

	return cmd
}

func maintenanceCommand(use, short string, newApp AppFactory, flags *Flags, set func(*Flags)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := *flags
			set(&f)
			f.DisableWebserver = true
			return runApp(cmd, newApp, f)
		},
	}
}

func runApp(cmd *cobra.Command, newApp AppFactory, flags Flags) error {
	app := newApp()
	if app == nil {
		return fmt.Errorf("%s: app factory returned nil", cmd.Name())
	}

	// Flags set in code stay on; the command line only adds to them.
	current := app.Flags()
	app.SetFlags(Flags{
		Clear:            current.Clear || flags.Clear,
		Migrate:          current.Migrate || flags.Migrate,
		Seed:             current.Seed || flags.Seed,
		Rollback:         current.Rollback || flags.Rollback,
		DisableWebserver: current.DisableWebserver || flags.DisableWebserver,
	})

	return app.Run(cmd.Context())
}

// Execute runs the command line of an application and exits with status 1
// when the command fails.
//
// Example:
//
//	func main() {
//	    rapid.Execute("myapp", func() *rapid.App {
//	        return rapid.New(".", rapid.WithCatalog(catalog)).Autoload()
//	    })
//	}
func Execute(name string, newApp AppFactory) {
	if err := NewCommand(name, newApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
