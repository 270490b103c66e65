package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DavidKirkpatrick95/Alterrain/internal/agent"
	"github.com/DavidKirkpatrick95/Alterrain/internal/engine"
	"github.com/DavidKirkpatrick95/Alterrain/internal/infrastructure/storage"
	"github.com/DavidKirkpatrick95/Alterrain/internal/server"
	"github.com/DavidKirkpatrick95/Alterrain/internal/version"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
)

func init() {
	// .env опционален: в контейнере конфиг приходит из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "warning: .env load failed:", err)
	}
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var (
		seed        int64
		snapshotID  string
		idleTimeout time.Duration
		bots        int
		journalPath string
	)
	flag.Int64Var(&seed, "seed", 0, "Initial world seed (0 for random)")
	flag.StringVar(&snapshotID, "snapshot", "", "Snapshot ID to load/save the tile grid (empty disables persistence)")
	flag.DurationVar(&idleTimeout, "idle-timeout", 5*time.Minute, "Disconnect after this much silence (0 disables)")
	flag.IntVar(&bots, "bots", 0, "Number of headless bots to connect on startup")
	flag.StringVar(&journalPath, "inspect", "", "Path to .atj journal file to inspect, then exit")
	flag.Parse()

	logger.Log.Info("Starting Alterrain...")
	logger.Log.Info(version.String())

	// РЕЖИМ ИНСПЕКЦИИ ЖУРНАЛА
	if journalPath != "" {
		inspectJournal(journalPath)
		return
	}

	cfg := engine.NewConfig()
	if seed != 0 {
		cfg.Seed = seed
		logger.Log.Infof("🎲 Using explicit world seed: %d", seed)
	} else {
		logger.Log.Infof("🎲 Using random world seed: %d", cfg.Seed)
	}
	cfg.SnapshotID = snapshotID
	cfg.IdleTimeout = idleTimeout

	port := os.Getenv("AT_PORT")
	if port == "" {
		port = "8080"
	}

	dataDir := os.Getenv("AT_DATA")
	if dataDir == "" {
		dataDir = "data"
	}
	cfg.JournalDir = filepath.Join(dataDir, "journals")

	// 2. Персистентность. Без нее сервер тоже работает (свежий мир).
	var store engine.SnapshotStore
	var boltStore *storage.BoltStore
	if snapshotID != "" {
		var err error
		boltStore, err = storage.OpenBoltStore(filepath.Join(dataDir, "world.db"))
		if err != nil {
			logger.Log.Fatal("Failed to open snapshot store:", err)
		}
		store = boltStore
	}

	// 3. Инициализация ядра с конфигом
	gameService := engine.NewService(cfg, store)
	gameService.Start()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 4. Запуск сервера
	srv := server.New(gameService, port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	// 5. Боты (опционально)
	botStop := make(chan struct{})
	for i := 0; i < bots; i++ {
		bot := agent.NewBot(
			fmt.Sprintf("bot-%d", i),
			"ws://localhost:"+port+"/ws",
			250*time.Millisecond,
			cfg.Seed+int64(i),
		)
		go func() {
			// Даем HTTP-серверу подняться
			time.Sleep(time.Second)
			if err := bot.Run(botStop); err != nil {
				logger.Log.WithError(err).Warn("Bot stopped")
			}
		}()
	}

	<-stop
	logger.Log.Info("Shutting down...")

	close(botStop)
	gameService.Shutdown()
	if boltStore != nil {
		if err := boltStore.Close(); err != nil {
			logger.Log.WithError(err).Warn("Snapshot store close failed")
		}
	}

	logger.Log.Info("Done.")
}

// inspectJournal печатает сводку по файлу журнала команд.
func inspectJournal(path string) {
	j, err := storage.LoadJournal(path)
	if err != nil {
		logger.Log.Fatal("Failed to load journal:", err)
	}

	fmt.Printf("journal: %s\n", path)
	fmt.Printf("seed:    %d\n", j.Seed)
	fmt.Printf("started: %s\n", time.Unix(j.Started, 0).Format(time.RFC3339))
	fmt.Printf("entries: %d\n", len(j.Entries))

	perType := make(map[uint8]int)
	for _, e := range j.Entries {
		perType[e.Type]++
	}
	for t, n := range perType {
		fmt.Printf("  type %d: %d\n", t, n)
	}
}
