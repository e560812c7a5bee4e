package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/api"
	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/library"
	"github.com/justyntemme/linga-t/internal/store"
	"github.com/justyntemme/linga-t/internal/ui"
	"github.com/justyntemme/linga-t/internal/ui/views"
	"github.com/justyntemme/linga-t/pkg/models"
)

// readerFlags override the configured reading modes for new books
type readerFlags struct {
	fit  string
	rtl  bool
	dual bool
}

func (f readerFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("fit") {
		if _, err := comic.ParseFitMode(f.fit); err != nil {
			return err
		}
		cfg.Reader.FitMode = f.fit
	}
	if cmd.Flags().Changed("rtl") {
		cfg.Reader.RightToLeft = f.rtl
	}
	if cmd.Flags().Changed("dual") {
		cfg.Reader.DualPage = f.dual
	}
	return nil
}

// NewRootCmd builds the linga-t command tree
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		serverURL  string
		reader     readerFlags
	)

	cmd := &cobra.Command{
		Use:   "linga-t [PATH]",
		Short: "Terminal comic reader with synchronized reading progress",
		Long: `linga-t reads comic archives (.cbz) in the terminal.

Without a PATH it browses the configured server, or the configured local
library when no server is set. PATH may be a single book, which opens
directly, or a directory to browse as a local library. Reading progress is
kept on this device and sent to the server when one is used.`,
		Example: `  # Browse a server and remember it
  linga-t --url http://comics.local:8080

  # Read one book right to left, two pages at a time
  linga-t --rtl --dual ~/comics/akira-01.cbz`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if serverURL != "" {
				if err := cfg.SetServerURL(serverURL); err != nil {
					return fmt.Errorf("save server url: %w", err)
				}
			}
			if err := reader.apply(cmd, cfg); err != nil {
				return err
			}

			log, err := cfg.Logging.Prepare(false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			positions, err := store.OpenDir(cfg.DataDir, log.Named("store"))
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, positions.Close()) }()

			var path string
			if len(args) > 0 {
				path = args[0]
			}
			source, syncer, book, err := openSource(cfg, path, positions, log)
			if err != nil {
				return err
			}

			opts := []ui.Option{
				ui.WithLogger(log),
				ui.WithSessionOptions(
					comic.WithContext(cmd.Context()),
					comic.WithPositionStore(positions),
					comic.WithSyncer(syncer),
				),
			}
			if book != nil {
				opts = append(opts, ui.WithBook(*book))
			}

			app := ui.NewApp(cfg, source, opts...)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run reader: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default <user config dir>/linga-t/config.yaml)")
	cmd.Flags().StringVarP(&serverURL, "url", "s", "", "Server URL, saved to the config")
	cmd.Flags().StringVar(&reader.fit, "fit", models.FitModeFull, "Fit mode for new books: full, height or width")
	cmd.Flags().BoolVar(&reader.rtl, "rtl", false, "Read new books right to left")
	cmd.Flags().BoolVar(&reader.dual, "dual", false, "Show two pages at a time in new books")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPagesCmd())

	return cmd
}

// openSource picks where books come from. A book path also returns the
// summary to open directly.
func openSource(cfg *config.Config, path string, positions *store.SQLite, log *zap.Logger) (views.Source, comic.ProgressSyncer, *models.BookSummary, error) {
	if path == "" && cfg.IsRemote() {
		client := api.NewClient(cfg.ServerURL, cfg.Token)
		client.SetDevice(cfg.DeviceID)
		log.Info("Reading from server", zap.String("url", client.BaseURL()))
		return client, client, nil, nil
	}

	if path == "" {
		path = cfg.LibraryPath
	}
	if path == "" {
		return nil, nil, nil, errors.New("no server or library configured: pass a PATH or --url")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, nil, err
	}

	if info.IsDir() {
		log.Info("Reading local library", zap.String("root", path))
		return library.NewLocal(library.NewDir(path), positions, log.Named("library")), positions, nil, nil
	}

	if !library.IsBook(path) {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, library.ErrUnsupported)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, nil, err
	}
	dir := library.NewDir(filepath.Dir(abs))
	rel := filepath.Base(abs)
	book := &models.BookSummary{
		ID:      library.EncodeID(rel),
		RelPath: rel,
		Name:    library.BookName(rel),
	}
	log.Info("Reading book", zap.String("path", abs))
	return library.NewLocal(dir, positions, log.Named("library")), positions, book, nil
}
