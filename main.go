package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tkdue/magicsearch/internal/expand"
	"github.com/Tkdue/magicsearch/internal/fetch"
	"github.com/Tkdue/magicsearch/internal/provider"
	"github.com/Tkdue/magicsearch/internal/search"
	"github.com/Tkdue/magicsearch/internal/storage"
	"github.com/Tkdue/magicsearch/internal/transfer"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "magicsearch",
	Short: "Search six stock image providers at once and collect the results",
	Long: `magicsearch fans one query out to Google, Unsplash, Pixabay, Pexels,
Freepik and Envato, merges and ranks what comes back, and can download the
chosen images into a local directory or a Google Drive folder.

Creative searches first expand the query into related phrases with an AI
model (OpenAI, then Anthropic, then Gemini when configured).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default "+defaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, searchCmd, fetchCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds everything built from one Config.
type app struct {
	cfg      *Config
	log      *zap.Logger
	search   *search.Orchestrator
	pipeline *transfer.Pipeline
	journal  *storage.Journal
	drive    *storage.Drive
}

func newApp(ctx context.Context, cfg *Config, log *zap.Logger) (*app, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := fetch.New(nil, log)

	chain := []expand.Completer{
		expand.NewOpenAI(client, expand.OpenAIOptions(cfg.OpenAI)),
		expand.NewAnthropic(client, expand.AnthropicOptions(cfg.Anthropic)),
	}
	if cfg.Gemini.APIKey != "" {
		gemini, err := expand.NewGemini(ctx, expand.GeminiOptions(cfg.Gemini))
		if err != nil {
			log.Warn("gemini disabled", zap.Error(err))
		} else {
			chain = append(chain, gemini)
		}
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		search: search.New(provider.NewMediaAdapters(client, cfg.Credentials(), log), expand.New(log, chain...), log),
		pipeline: transfer.New(client, &transfer.BatchThrottle{
			Size:  cfg.Transfer.BatchSize,
			Pause: cfg.BatchPause(),
		}, log),
	}

	journal, err := storage.OpenJournal(cfg.Journal.File, log)
	if err != nil {
		return nil, err
	}
	if _, err := journal.DeleteBefore(ctx, time.Now().Add(-cfg.Retention())); err != nil {
		log.Warn("journal purge failed", zap.Error(err))
	}
	a.journal = journal
	a.pipeline.Observe(a.record)

	if cfg.Drive.FolderId != "" && cfg.Drive.Credentials != "" {
		creds, err := cfg.DriveCredentials()
		if err != nil {
			journal.Close()
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		api, err := storage.NewDriveAPI(ctx, creds, cfg.Drive.Impersonate)
		if err != nil {
			journal.Close()
			return nil, err
		}
		a.drive = storage.NewDrive(api, cfg.Drive.FolderId, log)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.journal.Close()
}

// record journals one transfer outcome. Journal failures are logged only.
func (a *app) record(run uuid.UUID, o transfer.Outcome) {
	_ = a.journal.Record(context.Background(), storage.Entry{
		Run:       run.String(),
		Asset:     o.AssetRef,
		Provider:  string(o.Provider),
		Name:      o.FileName,
		Location:  o.Location,
		Succeeded: o.Succeeded,
		Bytes:     o.BytesWritten,
		Detail:    o.ErrorDetail,
	})
}

// sink picks the destination for a transfer: a dated Drive subfolder when
// folder is set, otherwise dir below the configured download directory.
func (a *app) sink(folder, dir string, at time.Time) (transfer.Sink, error) {
	if folder != "" {
		if a.drive == nil {
			return nil, errDriveNotConfigured
		}
		return a.drive.Folder(folder, at), nil
	}
	return storage.NewDirSink(confine(a.cfg.Transfer.Dir, dir)), nil
}

// openApp loads the config and builds the app for a command.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logger)
}
