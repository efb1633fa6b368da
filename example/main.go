package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfwatch/shelfwatch"
)

const demoToken = "demo-token"

func main() {
	// start mock Audiobookshelf server (see mock_server.go)
	go StartMockAudiobookshelf(":13378", demoToken)
	time.Sleep(100 * time.Millisecond)

	// custom sensor on top of the built-ins: backup count from an
	// endpoint ShelfWatch doesn't read by default
	backups, err := shelfwatch.NewSensor("backups", "api/backups",
		shelfwatch.WithSensorName("Audiobookshelf Backups"),
		shelfwatch.WithUnit("backups"),
		shelfwatch.WithValue(shelfwatch.Field("total")),
	)
	if err != nil {
		slog.Error("failed to create backups sensor", "error", err)
		os.Exit(1)
	}

	// print session count changes as they stream in
	var lastSessions any
	onUpdate := func(u shelfwatch.SensorUpdate) {
		if u.Key != "sessions" || u.State == lastSessions {
			return
		}
		lastSessions = u.State
		slog.Info("session count changed", "sessions", u.State)
	}

	sw, err := shelfwatch.New(
		shelfwatch.WithServer("http://localhost:13378", demoToken),
		shelfwatch.WithScanInterval(10*time.Second),
		shelfwatch.WithPort(8080),
		shelfwatch.WithSensor(backups),
		shelfwatch.WithUpdateCallback(onUpdate),
	)
	if err != nil {
		slog.Error("failed to create shelfwatch", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   ShelfWatch Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Sensors:                                            ║")
	fmt.Println("  ║   • users, sessions, libraries, server version        ║")
	fmt.Println("  ║   • size / items / duration for 2 mock libraries      ║")
	fmt.Println("  ║   • 1 custom (backup count)                           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sw.Start(ctx); err != nil {
		slog.Error("shelfwatch error", "error", err)
		os.Exit(1)
	}
}
