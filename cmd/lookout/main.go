// Package main implements the Lookout bot, which watches voice-channel
// presence in Discord guilds and DMs followers when someone they follow
// joins a voice channel.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"

	rootpkg "github.com/lookoutbot/lookout"
	"github.com/lookoutbot/lookout/internal/config"
	"github.com/lookoutbot/lookout/internal/countdown"
	"github.com/lookoutbot/lookout/internal/follow"
	"github.com/lookoutbot/lookout/internal/gateway"
	"github.com/lookoutbot/lookout/internal/logger"
	"github.com/lookoutbot/lookout/internal/paths"
	"github.com/lookoutbot/lookout/internal/update"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - release builds: -X main.version=<tag>
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically, so dev builds get a useful version string
// without needing git at runtime.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and dirty
// state embedded by the Go toolchain are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken generates a random 16-character hex token used to prove ownership
// of the PID file, so [removePID] only deletes the file if this instance wrote it.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID creates or opens the PID file at [DataPaths.PID], acquires an
// advisory file lock, and writes "PID:TOKEN" content. The lock doubles as the
// bot's single-instance guard over the follow artifact: two processes writing
// follows.json concurrently would clobber each other. The returned file handle
// must be kept open for the lifetime of the process to hold the lock; pass it
// to [removePID] on shutdown.
func writePID(dp DataPaths, token string) (*os.File, error) {
	f, err := os.OpenFile(dp.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	content := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if _, err := f.WriteString(content); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID releases the advisory lock, closes the file handle, and removes the
// PID file only if the stored token matches, preventing accidental removal of a
// file owned by a different bot instance.
func removePID(dp DataPaths, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(dp.PID())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(dp.PID())
	}
}

// checkStalePID checks whether another bot instance is running. It attempts
// to acquire the advisory lock on the PID file; if the lock fails, another
// instance holds it. If the lock succeeds, any previous instance is dead and
// the stale file is cleaned up.
func checkStalePID(dp DataPaths) (alive bool, pid int) {
	f, err := os.OpenFile(dp.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}

	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(dp.PID())
		f.Close()
		parts := strings.SplitN(string(data), ":", 2)
		if len(parts) >= 1 {
			if p, convErr := strconv.Atoi(parts[0]); convErr == nil {
				return true, p
			}
		}
		return true, 0
	}

	// Lock acquired -- previous instance is dead. Clean up stale file.
	_ = unlockFile(f)
	f.Close()
	os.Remove(dp.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns the platform default directory for Lookout data,
// typically ~/.lookout. Falls back to ./.lookout if the home directory
// cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	dataDir := flag.String("data-dir", defaultDataDir(), "Data directory for config, follow artifact, and logs")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", paths.BinaryName, resolveVersion())
		return
	}

	os.Exit(run(DataPaths{Root: *dataDir}))
}

// run holds the bot's full lifecycle so that deferred cleanup (PID removal,
// log flush, gateway close) executes before the process exits. It returns the
// process exit code.
func run(dp DataPaths) (exitCode int) {
	if err := os.MkdirAll(dp.Root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: create data dir: %v\n", err)
		return 1
	}

	if alive, pid := checkStalePID(dp); alive {
		fmt.Fprintf(os.Stderr, "bot already running (pid %d)\n", pid)
		return 1
	}

	if _, err := os.Stat(dp.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(dp.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(dp.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
		return 1
	}

	logLevel := logger.ParseLevel(cfg.Log.Level)
	log, levelVar, logCloser, err := logger.NewLogger(dp.Log(), logLevel, cfg.Log.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: init logger: %v\n", err)
		return 1
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	// Any panic past this point is logged at fail level before the process
	// dies with a non-zero code, so the crash is visible in the rotated log
	// and not just on a detached stderr.
	defer func() {
		if r := recover(); r != nil {
			logger.Fail(slog.Default(), "unhandled panic", "error", r, "stack", string(debug.Stack()))
			exitCode = 1
		}
	}()

	ver := resolveVersion()
	slog.Info("lookout starting", "version", ver, "data_dir", dp.Root)

	botToken := config.Token()
	if botToken == "" {
		logger.Fail(slog.Default(), "missing bot token", "env", config.TokenEnvVar)
		fmt.Fprintf(os.Stderr, "fatal: %s is not set\n", config.TokenEnvVar)
		return 1
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("update check panic", "error", r)
			}
		}()
		update.Check(ver)
	}()

	ownToken := pidToken()
	pidFile, err := writePID(dp, ownToken)
	if err != nil {
		slog.Error("failed to write PID file", "error", err)
		return 1
	}
	defer removePID(dp, ownToken, pidFile)

	store, err := follow.Open(dp.Follows())
	if err != nil {
		// The store degrades to empty rather than crashing; an unreadable
		// artifact should not take the whole bot down.
		slog.Warn("follow artifact not fully loaded", "error", err)
	}
	slog.Info("follow store opened", "targets", store.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw, err := gateway.New(botToken, store, cfg, slog.Default())
	if err != nil {
		slog.Error("failed to create gateway session", "error", err)
		return 1
	}
	if err := gw.Open(ctx); err != nil {
		slog.Error("failed to connect to Discord", "error", err)
		return 1
	}
	defer gw.Close()
	slog.Info("connected to Discord", "self_id", gw.SelfID())

	var announcer *countdown.Announcer
	if cfg.Countdown.Enabled {
		targetTime, dateErr := cfg.TargetTime()
		if dateErr != nil {
			slog.Error("invalid countdown target date", "error", dateErr)
			return 1
		}
		ch := gw.AnnounceChannel(cfg.Countdown.ChannelID)
		announcer = countdown.New(ch, gw.SelfID(), targetTime, cfg.Countdown.Style, slog.Default())
		cr, startErr := announcer.Start(ctx, cfg.Countdown.HourUTC)
		if startErr != nil {
			slog.Error("failed to start countdown schedule", "error", startErr)
			return 1
		}
		defer cr.Stop()
		slog.Info("countdown announcer started",
			"channel_id", cfg.Countdown.ChannelID,
			"hour_utc", cfg.Countdown.HourUTC,
		)
	}

	watcher, err := config.NewWatcher(dp.Config())
	if err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "error", err)
	} else {
		defer watcher.Close()
		if watcher.Polling() {
			slog.Info("using polling mode for config watching")
		}
	}

	loop(dp, gw, announcer, levelVar, watcher)

	slog.Info("lookout stopped")
	return 0
}

// ///////////////////////////////////////////////
// Event Loop
// ///////////////////////////////////////////////

// loop blocks until an OS shutdown signal arrives, applying config hot
// reloads as the watcher reports changes. Reload failures keep the previous
// configuration; a half-applied config is worse than a stale one.
func loop(dp DataPaths, gw *gateway.Gateway, announcer *countdown.Announcer, levelVar *slog.LevelVar, watcher *config.Watcher) {
	sigCh := signalChannel()

	var events <-chan struct{}
	if watcher != nil {
		events = watcher.Events()
	}

	for {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig.String())
			return

		case <-events:
			cfg, err := config.Load(dp.Root)
			if err != nil {
				slog.Warn("config reload failed, keeping previous config", "error", err)
				continue
			}
			levelVar.Set(logger.ParseLevel(cfg.Log.Level))
			gw.UpdateConfig(cfg)
			if announcer != nil {
				announcer.SetStyle(cfg.Countdown.Style)
			}
			slog.Info("config reloaded",
				"log_level", cfg.Log.Level,
				"ignore_patterns", len(cfg.Notify.Ignore),
			)
		}
	}
}
