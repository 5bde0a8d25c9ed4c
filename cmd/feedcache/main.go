package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/feed"

	"github.com/spf13/cobra"
)

const (
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Database file name shared with the server
	databaseFile = "feeds.db"
	// Default timeout for a single feed fetch
	defaultFetchTimeout = 10 * time.Second
)

type options struct {
	databaseDir  string
	baseURL      string
	fetchTimeout time.Duration
	purgeAll     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "feedcache",
		Short:        "Inspect and maintain the playlist widget feed cache",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.databaseDir, "database-dir", envOr("DATABASE_DIR", defaultDatabaseDir),
		"Directory holding "+databaseFile)

	fetchCmd := &cobra.Command{
		Use:   "fetch PLAYLIST_ID...",
		Short: "Fetch playlists from the feed endpoint into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args)
		},
	}
	fetchCmd.Flags().StringVar(&opts.baseURL, "base-url", envOr("FEED_BASE_URL", feed.DefaultBaseURL), "Feed endpoint")
	fetchCmd.Flags().DurationVar(&opts.fetchTimeout, "timeout", defaultFetchTimeout, "Timeout per feed request")

	purgeCmd := &cobra.Command{
		Use:   "purge [PLAYLIST_ID...]",
		Short: "Remove cached playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd, opts, args)
		},
	}
	purgeCmd.Flags().BoolVar(&opts.purgeAll, "all", false, "Remove every cached feed")

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached feeds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runList(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "show PLAYLIST_ID",
			Short: "Print the cached entries of a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShow(cmd, opts, args[0])
			},
		},
		fetchCmd,
		purgeCmd,
	)

	return root
}

func openDatabase(ctx context.Context, opts *options) (*database.Database, error) {
	if _, err := os.Stat(opts.databaseDir); err != nil {
		return nil, fmt.Errorf("database directory %s: %w", opts.databaseDir, err)
	}
	return database.New(ctx, filepath.Join(opts.databaseDir, databaseFile))
}

func runList(cmd *cobra.Command, opts *options) error {
	db, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer db.Close()

	feeds, err := db.ListFeeds(cmd.Context())
	if err != nil {
		return err
	}

	if len(feeds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No cached feeds.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYLIST\tENTRIES\tFETCHED")
	for _, f := range feeds {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.PlaylistID, f.Entries, f.FetchedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, opts *options, playlistID string) error {
	db, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, fetchedAt, err := db.LoadFeed(cmd.Context(), playlistID)
	if errors.Is(err, database.ErrFeedNotCached) {
		return fmt.Errorf("playlist %s is not cached", playlistID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Playlist %s, fetched %s\n", playlistID, fetchedAt.UTC().Format(time.RFC3339))
	for _, e := range entries {
		fmt.Fprintf(out, "%3d  %s  %s\n", e.Index, e.ID, e.Title)
	}
	return nil
}

func runFetch(cmd *cobra.Command, opts *options, playlistIDs []string) error {
	db, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer db.Close()

	provider := feed.NewHTTPProvider(opts.baseURL, opts.fetchTimeout)

	var errs []error
	for _, id := range playlistIDs {
		entries, err := provider.Fetch(cmd.Context(), id)
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %v\n", id, err)
			continue
		}
		if err := db.SaveFeed(cmd.Context(), id, entries, time.Now()); err != nil {
			errs = append(errs, fmt.Errorf("cache playlist %s: %w", id, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cached %s (%d entries)\n", id, len(entries))
	}
	return errors.Join(errs...)
}

func runPurge(cmd *cobra.Command, opts *options, playlistIDs []string) error {
	if opts.purgeAll == (len(playlistIDs) > 0) {
		return errors.New("purge needs playlist IDs or --all, but not both")
	}

	db, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.purgeAll {
		feeds, err := db.ListFeeds(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range feeds {
			playlistIDs = append(playlistIDs, f.PlaylistID)
		}
	}

	for _, id := range playlistIDs {
		if err := db.DeleteFeed(cmd.Context(), id); err != nil {
			return fmt.Errorf("purge playlist %s: %w", id, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d feed(s)\n", len(playlistIDs))
	return nil
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
