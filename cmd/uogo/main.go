package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/uogo/client/internal/client"
	"github.com/uogo/client/internal/config"
	"github.com/uogo/client/internal/data"
	"github.com/uogo/client/internal/persist"
	"github.com/uogo/client/internal/scripting"
	"github.com/uogo/client/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(host string, port int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               uogo  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          headless shard client            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mShard:\033[0m %s \033[90m(port %d)\033[0m\n\n", host, port)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printSkip(msg string) {
	fmt.Printf("  \033[90m- %s\033[0m\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Client startup ────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/client.toml"
	if p := os.Getenv("UOGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Network.Host, cfg.Network.Port)

	// 3. Local store: login profiles and the message journal
	printSection("Store")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.Open(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close()
	printOK(fmt.Sprintf("%s store open", db.Dialect))

	if err := persist.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	profiles := persist.NewProfileRepo(db)
	journal := persist.NewJournalRepo(db, log.Named("journal"))
	defer journal.Close()

	// 4. Load client data
	printSection("Data")

	assets := world.Assets{Textures: data.NewTextures(cfg.Data.AssetCacheSize)}

	tiles, err := data.LoadTileData(cfg.Data.TileData)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		printSkip("no tile data, walking checks disabled")
	case err != nil:
		return fmt.Errorf("tile data: %w", err)
	default:
		land, items := tiles.Count()
		printStat("land tiles", land)
		printStat("item tiles", items)
		assets.Tiles = tiles
	}

	maps, err := data.LoadMapList(cfg.Data.MapList)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		printSkip("no map list, terrain disabled")
	case err != nil:
		return fmt.Errorf("map list: %w", err)
	default:
		printStat("maps", len(maps.IDs()))
		blocks := data.NewBlockLoader(cfg.Data.TileDir, maps, cfg.Data.AssetCacheSize, log.Named("maps"))
		defer blocks.Close()
		assets.Maps = blocks
	}

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	printStat("macros", len(engine.Macros()))
	fmt.Println()

	// 5. Build the client
	c, err := client.New(cfg, client.Options{
		Assets:   assets,
		Engine:   engine,
		Journal:  journal,
		Profiles: profiles,
	}, log)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	defer c.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Connect(sigCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	printSection("Ready")
	printReady(fmt.Sprintf("connecting as %s", cfg.Account.Name))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	// 6. Game loop and console input
	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return c.Run(gctx)
	})
	g.Go(func() error {
		readLines(gctx, os.Stdin, c.Lines())
		return nil
	})
	err = g.Wait()
	log.Info("client stopped",
		zap.Int64("journal_written", journal.Written()),
		zap.Int64("journal_dropped", journal.Dropped()))
	return err
}

// readLines forwards console lines until ctx ends or input closes. The
// scanner goroutine is left behind on shutdown; stdin reads cannot be
// interrupted.
func readLines(ctx context.Context, r io.Reader, out chan<- string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
