// Command migrate-bindings imports a steam_binding.json file (current or
// legacy flat format) into the Postgres binding store.
//
// Usage:
//
//	migrate-bindings --file data/steam_binding.json --dsn postgres://... [--dry-run]
//
// Entries already in Postgres are kept; entries from the file win on conflict.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/db"
)

type options struct {
	file       string
	dsn        string
	migrations string
	dryRun     bool
}

// report summarizes one import run.
type report struct {
	Users       int
	Groups      int
	Memberships int
	Overwritten int
	Skipped     []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = db.DefaultDSN
	}

	cmd := &cobra.Command{
		Use:          "migrate-bindings",
		Short:        "Import Steam bindings from the JSON file into Postgres",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), openPostgres(opts.migrations))
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", filepath.Join(dataDir, binding.FileName), "path to the binding JSON file")
	cmd.Flags().StringVar(&opts.dsn, "dsn", dsn, "Postgres connection string")
	cmd.Flags().StringVar(&opts.migrations, "migrations", "", "migration source URL (e.g. file:///srv/migrations); embedded set when empty")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would be imported without writing")
	return cmd
}

// openPostgres connects, applies migrations from source (embedded when
// empty) and returns the backend.
func openPostgres(source string) openFunc {
	return func(ctx context.Context, dsn string) (binding.Backend, func() error, error) {
		database, err := db.Connect(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		if source != "" {
			if err := db.RunMigrationsFromPath(database, source); err != nil {
				_ = database.Close()
				return nil, nil, fmt.Errorf("migrate from %s: %w", source, err)
			}
		} else if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL", slog.Any("err", err))
			if err := db.Migrate(ctx, database); err != nil {
				_ = database.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return binding.NewPostgresBackend(database), database.Close, nil
	}
}

type openFunc func(ctx context.Context, dsn string) (binding.Backend, func() error, error)

func run(ctx context.Context, opts options, out io.Writer, open openFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}
	src, err := binding.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.file, err)
	}

	var dst binding.Backend
	existing := binding.Snapshot{}
	if !opts.dryRun {
		backend, closeFn, err := open(ctx, opts.dsn)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeFn(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		if existing, err = backend.Load(ctx); err != nil {
			return fmt.Errorf("load existing bindings: %w", err)
		}
		dst = backend
	}

	merged, rep := merge(existing, src)
	fmt.Fprintf(out, "users: %d\ngroups: %d\nmemberships: %d\noverwritten: %d\nskipped: %d\n",
		rep.Users, rep.Groups, rep.Memberships, rep.Overwritten, len(rep.Skipped))
	for _, k := range rep.Skipped {
		fmt.Fprintf(out, "  skipped %s\n", k)
	}
	if opts.dryRun {
		fmt.Fprintln(out, "dry run: nothing written")
		return nil
	}
	if err := dst.Save(ctx, merged); err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}
	slog.Info("bindings imported",
		slog.Int("users", rep.Users),
		slog.Int("groups", rep.Groups),
		slog.Int("overwritten", rep.Overwritten))
	return nil
}

// merge overlays src onto dst. Entries with an invalid Steam ID are skipped
// and reported as "user" or "group/user".
func merge(dst, src binding.Snapshot) (binding.Snapshot, report) {
	out := binding.Snapshot{
		Users:  make(map[string]string, len(dst.Users)+len(src.Users)),
		Groups: make(map[string]map[string]string, len(dst.Groups)+len(src.Groups)),
	}
	for u, sid := range dst.Users {
		out.Users[u] = sid
	}
	for g, members := range dst.Groups {
		m := make(map[string]string, len(members))
		for u, sid := range members {
			m[u] = sid
		}
		out.Groups[g] = m
	}

	var rep report
	for _, u := range slices.Sorted(maps.Keys(src.Users)) {
		sid := src.Users[u]
		if binding.ValidateSteamID(sid) != nil {
			rep.Skipped = append(rep.Skipped, u)
			continue
		}
		if prev, ok := out.Users[u]; ok && prev != sid {
			rep.Overwritten++
		}
		out.Users[u] = sid
		rep.Users++
	}
	for _, g := range slices.Sorted(maps.Keys(src.Groups)) {
		members := src.Groups[g]
		if out.Groups[g] == nil {
			out.Groups[g] = make(map[string]string, len(members))
		}
		for _, u := range slices.Sorted(maps.Keys(members)) {
			sid := members[u]
			if binding.ValidateSteamID(sid) != nil {
				rep.Skipped = append(rep.Skipped, g+"/"+u)
				continue
			}
			out.Groups[g][u] = sid
			rep.Memberships++
		}
		rep.Groups++
	}
	return out, rep
}
