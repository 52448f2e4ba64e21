package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/api"
	"github.com/yourusername/pin-extract-go/api/handlers"
	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/internal/harvest"
	"github.com/yourusername/pin-extract-go/internal/infrastructure"
	"github.com/yourusername/pin-extract-go/pkg/logger"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
)

func main() {
	flag.Parse()

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	setSysProcAttr(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Categories: scheduler, scan, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		log.Fatal("Failed to initialize category logs", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting Pin Extract server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir),
		zap.Duration("pacing_interval", config.Download.PacingInterval))

	if err := os.MkdirAll(filepath.Dir(config.Store.DatabasePath), 0755); err != nil {
		log.Fatal("Failed to create database directory", zap.Error(err))
	}
	repo, err := infrastructure.NewSQLiteJobRepository(config.Store.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	downloader, err := infrastructure.NewDiskDownloadService(
		config.Download.BaseDir,
		config.Download.HTTPTimeout,
		config.Download.UserAgent,
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize download service", zap.Error(err))
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	fetcher := infrastructure.NewHTTPPageFetcher(config.Download.HTTPTimeout, config.Download.UserAgent)

	scheduler := app.NewScheduler(downloader, repo, app.SchedulerConfig{
		PacingInterval: config.Download.PacingInterval,
	}, multiLog, log)
	defer scheduler.Close()

	harvestMgr := app.NewHarvestManager(fetcher, scheduler, notifier, &config.Harvest, multiLog, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.NotifyOnCompletion(ctx, scheduler, notifier)

	if config.Harvest.WatchFile != "" {
		watcher, err := newSnapshotWatcher(ctx, config, harvestMgr, scheduler, multiLog, log)
		if err != nil {
			log.Fatal("Failed to set up snapshot watcher", zap.Error(err))
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error("Snapshot watcher stopped", zap.Error(err))
			}
		}()
	}

	router := api.SetupRouter(api.RouterDeps{
		Scheduler:   scheduler,
		HarvestMgr:  harvestMgr,
		Jobs:        repo,
		LogsDir:     config.Download.LogsDir,
		MultiLogger: multiLog,
		Logger:      log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()
	scheduler.Close()

	log.Info("Server exited")
}

// newSnapshotWatcher rescans the configured HTML snapshot on every change and
// feeds newly found pins to the scheduler
func newSnapshotWatcher(
	ctx context.Context,
	config *domain.Config,
	harvestMgr *app.HarvestManager,
	scheduler *app.Scheduler,
	multiLog *logger.MultiLogger,
	log *zap.Logger,
) (*harvest.Watcher, error) {
	pageURL, err := url.Parse(config.Harvest.WatchPageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid watch_page_url: %w", err)
	}

	feed := app.NewSnapshotFeed(harvestMgr, scheduler, pageURL.String(), log)
	go feed.Run(ctx)

	onScan := func(result harvest.ScanResult) {
		if !result.BulkEligible {
			log.Debug("Snapshot is not a board or search page, skipping",
				zap.String("page_type", string(result.Page.Type)))
			return
		}
		feed.Add(result.Page, result.References)
	}

	indicator := func(sel *goquery.Selection, ref domain.MediaReference) {
		multiLog.LogScanEvent("candidate_marked",
			zap.String("identity", ref.IdentityKey),
			zap.String("kind", string(ref.Kind)),
			zap.String("url", ref.SourceURL))
	}

	return harvest.NewWatcher(
		config.Harvest.WatchFile,
		pageURL,
		harvest.SettingsFromConfig(config.Harvest),
		onScan,
		log,
		harvest.WithIndicatorHook(indicator),
	), nil
}
