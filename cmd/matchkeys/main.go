// Command matchkeys fetches tennis match keys from BetsAPI, buffers them in a
// session and loads them into the warehouse.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"matchkeys/ingestion/internal/config"
	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/normalize"
	"matchkeys/ingestion/internal/session"
)

var (
	cfg         *config.Config
	sessionName string
)

// openSessionStore is replaced in tests.
var openSessionStore = func(ctx context.Context) session.Store {
	return session.Open(ctx, cfg.RedisConfig())
}

var rootCmd = &cobra.Command{
	Use:          "matchkeys",
	Short:        "Tennis match key ingestion from BetsAPI",
	Long:         "Fetches BetsAPI tennis events day by day, normalizes them to match keys, and saves them to the warehouse partitioned by date range and timezone.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		cfg.SetupLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", "default", "name of the buffered session")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dateRange parses --from/--to. Empty values mean today in timezone.
func dateRange(from, to, timezone string) (time.Time, time.Time, error) {
	today := models.Day(time.Now().In(normalize.ResolveLocation(timezone)))

	start, end := today, today
	var err error
	if strings.TrimSpace(from) != "" {
		if start, err = models.ParseDay(from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	if strings.TrimSpace(to) != "" {
		if end, err = models.ParseDay(to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
	}
	return start, end, nil
}

func timezoneOrDefault(tz string) string {
	if tz = strings.TrimSpace(tz); tz != "" {
		return tz
	}
	return cfg.DefaultTimezone
}

// writeOutput writes to stdout for "-", into DefaultName inside a directory,
// or to the given file.
func writeOutput(cmd *cobra.Command, path, defaultName string, write func(io.Writer) error) (string, error) {
	if path == "-" {
		return "stdout", write(cmd.OutOrStdout())
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, defaultName)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func loadSession(ctx context.Context) (*session.Session, session.Store, error) {
	store := openSessionStore(ctx)
	s, err := store.Load(ctx, sessionName)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("load session %q: %w", sessionName, err)
	}
	return s, store, nil
}
