// Package commands implements the gastosctl subcommands. Every command opens
// the configured storage slot, runs one store operation and exits, so the
// terminal and the web page share the same collection.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/subcommands"

	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/log"
)

// Env carries what every command needs from the process.
type Env struct {
	Config *config.Config
	Out    io.Writer
	Err    io.Writer
	Logger *log.Logger
}

// Commands returns the full command set, ready to register.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&addCmd{env: env},
		&editCmd{env: env},
		&rmCmd{env: env},
		&lsCmd{env: env},
		&chartCmd{env: env},
		&watchCmd{env: env},
	}
}

// Register adds the command set to c, grouped like the page sections.
func Register(c *subcommands.Commander, env *Env) {
	for _, cmd := range Commands(env) {
		group := "expenses"
		switch cmd.Name() {
		case "ls", "chart":
			group = "reports"
		case "watch":
			group = "events"
		}
		c.Register(cmd, group)
	}
}

func (e *Env) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.NewText(e.Err, slog.LevelWarn, log.ComponentCLI)
}

func (e *Env) errorf(format string, args ...any) {
	fmt.Fprintf(e.Err, format+"\n", args...)
}

// storeFlags selects the storage slot; defaults come from configuration.
type storeFlags struct {
	backend string
	dir     string
	db      string
	key     string
}

func (s *storeFlags) register(f *flag.FlagSet, cfg *config.Config) {
	f.StringVar(&s.backend, "backend", cfg.DataBackend, "storage backend: "+strings.Join(config.Backends, ", "))
	f.StringVar(&s.dir, "dir", cfg.DataDir, "data directory for the file backend")
	f.StringVar(&s.db, "db", cfg.SQLiteDBPath, "database path for the sqlite backend")
	f.StringVar(&s.key, "key", cfg.StorageKey, "storage key holding the collection")
}

func (s *storeFlags) open(ctx context.Context, env *Env) (*cli.Session, error) {
	return cli.OpenStore(ctx, backend.Config{
		Type:          backend.BackendType(s.backend),
		Key:           s.key,
		DataDirectory: s.dir,
		SQLiteDBPath:  s.db,
	}, env.logger())
}

// describeProblems lists validation problems one per line.
func describeProblems(err error) string {
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	lines := make([]string, len(ve.Problems))
	for i, p := range ve.Problems {
		lines[i] = "  - " + p.Error()
	}
	return strings.Join(lines, "\n")
}
