package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/config"
	"github.com/portola-labs/podsearch/internal/database"
	"github.com/portola-labs/podsearch/internal/display"
	"github.com/portola-labs/podsearch/internal/episodes"
	"github.com/portola-labs/podsearch/internal/index"
	"github.com/portola-labs/podsearch/internal/ingest"
	"github.com/portola-labs/podsearch/internal/logging"
	"github.com/portola-labs/podsearch/internal/search"
	"github.com/portola-labs/podsearch/internal/server"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "podsearch-api",
		Short: "Podcast episode search service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("index-path", defaults.GetString("index.path"), "Search index path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("search-strategy", defaults.GetString("search.strategy"), "Default search strategy (relational, fulltext)")
	cmd.PersistentFlags().String("startup-query", defaults.GetString("search.startup_query"), "Query to run once after the initial ingestion pass")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "index.path", "index-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "search.strategy", "search-strategy")
	bindFlag(cmd, "search.startup_query", "startup-query")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := index.Open(appConfig.IndexPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reader, err := episodes.NewReader(db, logger)
	if err != nil {
		return err
	}

	syncer, err := ingest.NewSyncer(ingest.SyncerConfig{
		Source: reader,
		Index:  store,
		Clock:  time.Now,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	relational, err := search.NewRelational(store, logger)
	if err != nil {
		return err
	}
	fullText, err := search.NewFullText(store, logger)
	if err != nil {
		return err
	}

	// The ingestion pass fully completes (or fails) before any query runs.
	if err := syncer.Sync(ctx); err != nil {
		return err
	}

	if appConfig.StartupQuery != "" {
		if err := runStartupQuery(ctx, appConfig, store, logger); err != nil {
			return err
		}
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Relational:      relational,
		FullText:        fullText,
		DefaultStrategy: appConfig.Strategy,
		Syncer:          syncer,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runStartupQuery(ctx context.Context, appConfig config.AppConfig, store *index.Store, logger *zap.Logger) error {
	finder, err := search.ForStrategy(appConfig.Strategy, store, logger)
	if err != nil {
		return err
	}

	documents, err := finder.Find(ctx, appConfig.StartupQuery)
	if err != nil {
		return err
	}

	logger.Info("startup query executed",
		zap.String("query", appConfig.StartupQuery),
		zap.String("strategy", appConfig.Strategy),
		zap.Int("results", len(documents)))
	for _, document := range documents {
		logger.Info("startup query result",
			zap.String("id", document.ID),
			zap.String("title", display.Abbreviate(document.Title, 120)),
			zap.String("description", display.Abbreviate(document.Description, 120)),
			zap.String("transcript", display.Abbreviate(document.Transcript, 120)))
	}
	return nil
}
