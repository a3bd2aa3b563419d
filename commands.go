package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/duosync/internal/bot"
	"github.com/example/duosync/internal/config"
	"github.com/example/duosync/internal/database"
	"github.com/example/duosync/internal/duolingo"
	"github.com/example/duosync/internal/excel"
	"github.com/example/duosync/internal/logger"
	"github.com/example/duosync/internal/scheduler"
	"github.com/example/duosync/internal/ui"
	"github.com/example/duosync/internal/vocab"
)

// runtime holds what every command needs once config is loaded
type runtime struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		rt     runtime
		dsn    string
		driver string
	)

	root := &cobra.Command{
		Use:           "duosync",
		Short:         "Import Duolingo vocabulary into a flashcard collection",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.DSN = dsn
			}
			if cmd.Flags().Changed("driver") {
				cfg.Database.Driver = driver
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: validate: %w", err)
			}
			rt.cfg = cfg
			rt.log = logger.New(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dsn, "db", "", "collection database DSN (sqlite file path or postgres URL)")
	root.PersistentFlags().StringVar(&driver, "driver", "", "database driver: sqlite3 or postgres")

	root.AddCommand(
		newSyncCmd(&rt),
		newWatchCmd(&rt),
		newBotCmd(&rt),
		newExportCmd(&rt),
	)
	return root
}

func newSyncCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Log in to Duolingo and import new words interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := openCollection(rt.cfg)
			if err != nil {
				return err
			}
			defer collection.Close()

			term := ui.NewTerminal(os.Stdin, cmd.OutOrStdout())
			if _, err := newApp(rt, collection, term).Sync(cmd.Context()); err != nil {
				return err
			}
			if n, err := collection.Notes.Count(cmd.Context()); err == nil {
				rt.log.Debug("collection size", "notes", n)
			}
			return nil
		},
	}
}

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Import new words periodically without prompts",
		Long: "Runs a sync every WATCH_INTERVAL using DUOLINGO_USERNAME and DUOLINGO_PASSWORD " +
			"from the environment, answering yes to every question.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := vocab.Credentials{Username: rt.cfg.Duolingo.Username, Password: rt.cfg.Duolingo.Password}
			if creds.Username == "" || creds.Password == "" {
				return errors.New("DUOLINGO_USERNAME and DUOLINGO_PASSWORD must be set for watch mode")
			}

			collection, err := openCollection(rt.cfg)
			if err != nil {
				return err
			}
			defer collection.Close()

			app := newApp(rt, collection, ui.NewUnattended(creds, rt.log))
			s := scheduler.New(rt.cfg.Watch.Interval, app.Sync, rt.log)
			if err := s.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			rt.log.Info("stopping watch")
			s.Stop()
			return nil
		},
	}
}

func newBotCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve /sync over Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tg := rt.cfg.Telegram
			if tg.Token == "" {
				return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
			}
			allowed, err := tg.AllowedUserIDs()
			if err != nil {
				return err
			}
			if len(allowed) == 0 {
				return errors.New("ADMIN_USER_IDS must list at least one Telegram user id")
			}

			collection, err := openCollection(rt.cfg)
			if err != nil {
				return err
			}
			defer collection.Close()

			syncFn := func(ctx context.Context, chat vocab.Interactor) (*vocab.ImportResult, error) {
				return newApp(rt, collection, chat).Sync(ctx)
			}
			b, err := bot.New(tg.Token, allowed, tg.Timeout, syncFn, rt.log)
			if err != nil {
				return err
			}
			rt.log.Info("bot started, press Ctrl+C to stop")
			if err := b.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			rt.log.Info("bot stopped")
			return nil
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		tag        string
		sheet      string
		skipHeader bool
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write imported notes to an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := openCollection(rt.cfg)
			if err != nil {
				return err
			}
			defer collection.Close()

			exportCfg := excel.DefaultExportConfig()
			exportCfg.FilePath = args[0]
			exportCfg.Tag = rt.cfg.Import.Tag
			if tag != "" {
				exportCfg.Tag = tag
			}
			if sheet != "" {
				exportCfg.SheetName = sheet
			}
			exportCfg.SkipHeader = skipHeader

			result, err := excel.ExportNotes(cmd.Context(), collection.Notes, exportCfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d notes to %s\n", result.Rows, result.FilePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "export notes with this tag instead of the sync tag")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name for .xlsx output")
	cmd.Flags().BoolVar(&skipHeader, "no-header", false, "do not write the header row")
	return cmd
}

func openCollection(cfg *config.Config) (*database.Collection, error) {
	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.DataDir)
	if err != nil {
		return nil, err
	}
	collection, err := database.NewCollection(db, cfg.Database.NodeID)
	if err != nil {
		db.Close()
		return nil, err
	}
	return collection, nil
}

func newApp(rt *runtime, storage vocab.Storage, interactor vocab.Interactor) *vocab.App {
	return vocab.NewApp(storage, interactor, duolingo.Connector(duolingoOptions(rt.cfg), rt.log), rt.log, importOptions(rt.cfg))
}

func duolingoOptions(cfg *config.Config) duolingo.Options {
	return duolingo.Options{
		BaseURL:        cfg.Duolingo.BaseURL,
		DictionaryURL:  cfg.Duolingo.DictionaryURL,
		Timeout:        cfg.Duolingo.Timeout,
		RequestsPerSec: cfg.Duolingo.RequestsPerSec,
		UserAgent:      cfg.Duolingo.UserAgent,
	}
}

func importOptions(cfg *config.Config) vocab.Options {
	return vocab.Options{
		ModelName: cfg.Import.ModelName,
		DeckName:  cfg.Import.DeckName,
		Tag:       cfg.Import.Tag,
	}
}
