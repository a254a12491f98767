package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvaldesr/polyedge/config"
	"github.com/mvaldesr/polyedge/internal/adapters/coingecko"
	"github.com/mvaldesr/polyedge/internal/adapters/notify"
	"github.com/mvaldesr/polyedge/internal/adapters/polymarket"
	"github.com/mvaldesr/polyedge/internal/adapters/storage"
	"github.com/mvaldesr/polyedge/internal/engine"
	"github.com/mvaldesr/polyedge/internal/monitor"
	"github.com/mvaldesr/polyedge/internal/ports"
	"github.com/mvaldesr/polyedge/internal/risk"
	"github.com/mvaldesr/polyedge/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	live := flag.Bool("live", false, "enable live trading (requires POLYMARKET_PRIVATE_KEY)")
	paper := flag.Bool("paper", false, "force paper mode even if -live is set")
	once := flag.Bool("once", false, "run one scan cycle plus one resolution check and exit")
	status := flag.Bool("status", false, "print open positions and bankroll, then exit")
	report := flag.Bool("report", false, "print calibration report, then exit")
	bankroll := flag.Float64("bankroll", 0, "override starting bankroll in USD")
	table := flag.Bool("table", false, "print full opportunity table (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *bankroll > 0 {
		cfg.Bot.StartingBankrollUSD = *bankroll
	}
	liveMode := *live && !*paper

	tracker, err := storage.NewTracker(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open tracker", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer tracker.Close()

	console := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *status {
		runStatus(ctx, tracker, console, cfg)
		return
	}
	if *report {
		runReport(ctx, tracker, console)
		return
	}

	slog.Info("edgebot starting",
		"config", *configPath,
		"mode", modeName(liveMode),
		"interval", cfg.ScanInterval(),
		"bankroll", fmt.Sprintf("$%.2f", cfg.Bot.StartingBankrollUSD),
		"once", *once,
	)

	if liveMode && cfg.Wallet.PrivateKey == "" {
		slog.Error("live mode requires POLYMARKET_PRIVATE_KEY, falling back to paper")
		liveMode = false
	}

	var executor ports.TradeExecutor
	if liveMode {
		if !confirmLive(ctx, cfg) {
			slog.Info("live trading aborted by user")
			return
		}
		executor, err = setupExecutor(ctx, cfg)
		if err != nil {
			slog.Error("live setup failed", "err", err)
			os.Exit(1)
		}
	}

	notifier := buildNotifier(console, cfg, liveMode)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Scanner.MinVolume24h)
	gecko := coingecko.NewClient(cfg.API.CoinGeckoBase)
	scn := scanner.New(client, engine.New(), cfg.Scanner)
	sizer := risk.NewSizer(cfg.Risk)
	mon := monitor.New(tracker, client, notifier, monitor.Config{Interval: cfg.MonitorInterval()})

	bot := &Bot{
		cfg:      cfg,
		live:     liveMode,
		once:     *once,
		store:    tracker,
		spot:     gecko,
		scanner:  scn,
		sizer:    sizer,
		monitor:  mon,
		notifier: notifier,
		executor: executor,
	}

	if err := bot.Run(ctx); err != nil {
		slog.Error("bot exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("edgebot stopped cleanly")
}

// confirmLive muestra el banner de aviso y da 5 segundos para abortar
// antes de tocar dinero real.
func confirmLive(ctx context.Context, cfg *config.Config) bool {
	fmt.Printf("\n⚠️  LIVE TRADING MODE — REAL MONEY WILL BE SPENT\n")
	fmt.Printf("   Bankroll: $%.2f | Max bet: %.0f%% | Max exposure: %.0f%%\n",
		cfg.Bot.StartingBankrollUSD, cfg.Risk.MaxSingleBetPct*100, cfg.Risk.MaxTotalExposure*100)
	fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

	abortTimer := time.NewTimer(5 * time.Second)
	defer abortTimer.Stop()

	select {
	case <-abortTimer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func setupExecutor(ctx context.Context, cfg *config.Config) (*polymarket.Executor, error) {
	auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureCreds(ctx); err != nil {
		return nil, fmt.Errorf("derive API credentials: %w", err)
	}
	slog.Info("live: authenticated with Polymarket CLOB", "address", auth.Address())

	executor, err := polymarket.NewExecutor(auth, cfg.API.PolygonRPC)
	if err != nil {
		return nil, err
	}

	balance, err := executor.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("wallet balance: %w", err)
	}
	slog.Info("live: wallet USDC balance", "usdc", fmt.Sprintf("$%.2f", balance))

	return executor, nil
}

// buildNotifier arma el fan-out de alertas. Sin Telegram configurado el
// bot sigue funcionando solo con consola.
func buildNotifier(console *notify.Console, cfg *config.Config, live bool) ports.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		slog.Warn("telegram not configured: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		return console
	}

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Bot.MinEV, cfg.ScanInterval(), live)
	if err != nil {
		slog.Warn("telegram setup failed, console alerts only", "err", err)
		return console
	}
	slog.Info("telegram alerts enabled")
	return notify.NewMulti(console, tg)
}

func modeName(live bool) string {
	if live {
		return "LIVE"
	}
	return "PAPER"
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
