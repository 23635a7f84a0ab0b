package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/floattimer/internal/aspect"
	"github.com/1broseidon/floattimer/internal/config"
	"github.com/1broseidon/floattimer/internal/daemon"
	"github.com/1broseidon/floattimer/internal/hotkeys"
	"github.com/1broseidon/floattimer/internal/ipc"
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
	"github.com/1broseidon/floattimer/internal/windowid"
)

func lifecycleOptions(cfg *config.Config) lifecycle.Options {
	return lifecycle.Options{
		Title:       cfg.Title,
		URL:         cfg.URL,
		DefaultSize: platform.Size{Width: uint(cfg.DefaultSize.Width), Height: uint(cfg.DefaultSize.Height)},
		MinSize:     platform.Size{Width: uint(cfg.MinSize.Width), Height: uint(cfg.MinSize.Height)},
		SpawnOffset: platform.Point{X: cfg.SpawnOffset.X, Y: cfg.SpawnOffset.Y},
		Chrome:      platform.TimerChrome(),
	}
}

func registryDefaults(cfg *config.Config) registry.Prefs {
	return registry.Prefs{
		ThemeID:  cfg.Defaults.ThemeID,
		Title:    cfg.Title,
		Mode:     cfg.Defaults.Mode,
		LastTime: cfg.Defaults.LastTime,
	}
}

// activeAnchor returns the position of the focused timer window, so a
// hotkey-spawned window cascades from it.
func activeAnchor(host *platform.LinuxHost) *platform.Point {
	id, ok := host.ActiveWindow()
	if !ok {
		return nil
	}
	pos, err := host.OuterPosition(id)
	if err != nil {
		return nil
	}
	return &pos
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (title: %q, aspect ratio: %g)", cfg.Title, cfg.AspectRatio)
	for _, w := range cfg.Warnings() {
		log.Printf("Warning: %s", w)
	}

	if err := ipc.NewClient().Ping(); err == nil {
		log.Fatalf("Another floattimer daemon is already running")
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	host, err := platform.NewLinuxHostFromDisplay(cfg.Display)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer host.Disconnect()

	enforcer := aspect.NewEnforcer(host)
	enforcer.SetRatio(cfg.AspectRatio, cfg.AspectTolerance)
	manager := lifecycle.NewManager(host, windowid.NewAllocator(), enforcer, lifecycleOptions(cfg))

	regPath, err := cfg.RegistryPath()
	if err != nil {
		log.Fatalf("Failed to resolve registry path: %v", err)
	}
	reg, err := registry.Open(regPath, registryDefaults(cfg))
	if err != nil {
		log.Fatalf("Failed to open window registry: %v", err)
	}
	log.Printf("Window registry: %s (%d entries)", regPath, len(reg.Entries()))

	synchronizer := daemon.NewSynchronizer(reg, manager, logger, func() {
		log.Println("Last timer window closed, stopping")
		host.Quit()
	})
	manager.SetObserver(synchronizer)
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.SyncInterval(),
		Logger:   logger,
	}, reg, manager, synchronizer)

	var mainRec *platform.WindowRecord
	if e, ok := reg.Get(lifecycle.MainWindowID); ok {
		rec := e.WindowRecord
		mainRec = &rec
	}
	if err := manager.Bootstrap(mainRec); err != nil {
		log.Fatalf("Failed to open main window: %v", err)
	}

	if cfg.RestoreOnStart {
		for _, r := range manager.RestoreWindows(reg.Records()) {
			switch r.Outcome {
			case lifecycle.OutcomeRestored:
				log.Printf("Restored window %s", r.ID)
			case lifecycle.OutcomeFailed:
				log.Printf("Warning: failed to restore window %q: %s", r.ID, r.Error)
			}
		}
	}
	log.Printf("floattimer daemon started (next id: %s)", windowid.Format(manager.NextID()))

	if cfg.NewWindowHotkey != "" {
		hotkeyHandler := hotkeys.NewHandler(host)
		if err := hotkeyHandler.RegisterFunc(cfg.NewWindowHotkey, func() {
			id, err := manager.CreateWindow(activeAnchor(host))
			if err != nil {
				log.Printf("New-window hotkey: %v", err)
				return
			}
			log.Printf("New-window hotkey: opened %s", id)
		}); err != nil {
			log.Printf("Warning: Failed to register new window hotkey: %v", err)
		} else {
			log.Printf("New window hotkey registered: %s", cfg.NewWindowHotkey)
		}
	}

	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(cfg, manager, reg, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go reconciler.Run(reconcilerCtx)

	applyConfig := func(newCfg *config.Config) {
		manager.UpdateOptions(lifecycleOptions(newCfg))
		enforcer.SetRatio(newCfg.AspectRatio, newCfg.AspectTolerance)
		reg.SetDefaults(registryDefaults(newCfg))
		logLevel.Set(newCfg.SlogLevel())
		if newCfg.NewWindowHotkey != cfg.NewWindowHotkey || newCfg.Display != cfg.Display {
			log.Println("Note: display and new_window_hotkey changes take effect after a restart")
		}
	}

	reloadFromDisk := func(reason string) {
		log.Printf("%s, reloading config...", reason)
		newCfg, err := config.Load()
		if err != nil {
			log.Printf("Config reload failed: %v", err)
			return
		}
		ipcServer.UpdateConfig(newCfg)
		applyConfig(newCfg)
		log.Println("Config reloaded successfully")
	}

	configChanged := make(chan struct{}, 1)
	if cfgPath, err := config.DefaultConfigPath(); err == nil {
		watcher, err := daemon.NewConfigWatcher(cfgPath, 0, logger)
		if err != nil {
			log.Printf("Warning: config file watching disabled: %v", err)
		} else {
			go watcher.Run(reconcilerCtx, configChanged)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					reloadFromDisk("Received SIGHUP")

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down floattimer daemon...")
					reconciler.FlushGeometry()
					synchronizer.BeginShutdown()
					reconcilerCancel()
					ipcServer.Stop()
					host.Quit()
					return
				}

			case <-reloadChan:
				applyConfig(ipcServer.GetConfig())

			case <-configChanged:
				reloadFromDisk("Config file changed")
			}
		}
	}()

	log.Println("Entering event loop...")
	host.EventLoop()

	synchronizer.BeginShutdown()
	if err := reg.Save(); err != nil {
		log.Printf("Warning: failed to save registry: %v", err)
	}
	log.Println("floattimer daemon stopped")
}
