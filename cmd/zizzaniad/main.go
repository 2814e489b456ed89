package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/zizzania-go/zizzaniad/internal/app"
	"github.com/zizzania-go/zizzaniad/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	if cfg.ReplayFile == "" {
		if err := enableMonitorMode(cfg.Interface); err != nil {
			log.Fatalf("failed to enable monitor mode on %s: %v", cfg.Interface, err)
		}
		defer disableMonitorMode(cfg.Interface)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	slog.Info("zizzaniad started", "interface", cfg.Interface, "replay", cfg.ReplayFile != "", "passive", cfg.Passive)

	if err := application.Run(ctx); err != nil {
		slog.Error("application stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("zizzaniad stopped")
}

// enableMonitorMode switches iface into monitor mode so radiotap-wrapped
// 802.11 frames can be captured. It is skipped entirely in replay mode.
func enableMonitorMode(iface string) error {
	if err := runCmd("ip", "link", "set", iface, "down"); err != nil {
		return err
	}
	if err := runCmd("iw", iface, "set", "type", "monitor"); err != nil {
		return err
	}
	if err := runCmd("ip", "link", "set", iface, "up"); err != nil {
		return err
	}
	// Let the interface settle before frames are expected to arrive.
	time.Sleep(500 * time.Millisecond)
	return nil
}

func disableMonitorMode(iface string) {
	_ = runCmd("ip", "link", "set", iface, "down")
	_ = runCmd("iw", iface, "set", "type", "managed")
	_ = runCmd("ip", "link", "set", iface, "up")
}

func runCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("command failed: %s %v: %s", name, args, string(output))
		return err
	}
	return nil
}
