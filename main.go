// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ffutop/modbus-device/internal/config"
	"github.com/ffutop/modbus-device/internal/device"
	"github.com/ffutop/modbus-device/internal/responder"
	"github.com/ffutop/modbus-device/internal/store"
	"github.com/ffutop/modbus-device/internal/store/persist"
	"github.com/ffutop/modbus-device/modbus"
	"github.com/ffutop/modbus-device/transport"
	"github.com/ffutop/modbus-device/transport/rtu"
	"github.com/ffutop/modbus-device/transport/tcp"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	slog.Info("Starting Modbus device...", "name", cfg.Device.Name, "unit", cfg.Device.UnitID)

	storage := newStorage(cfg.Device)
	st, err := storage.Load()
	if err != nil {
		slog.Error("Failed to load persistence data, starting with fresh regions", "err", err)
		storage = persist.NewMemoryStorage(regionSizes(cfg.Device.Regions))
		st, _ = storage.Load()
	}
	st.SetWriteHook(storage.OnWrite)

	rsp := responder.New(cfg.Device.UnitID, st, slog.Default())
	rsp.Subscribe(func(unitID byte, req modbus.Request) {
		slog.Debug("Request observed", "unit", unitID, "request", req.String())
	})

	var servers []transport.Server
	for _, srvCfg := range cfg.Servers {
		switch srvCfg.Type {
		case "tcp":
			servers = append(servers, tcp.NewServer(srvCfg.Tcp.Address))
		case "rtu":
			servers = append(servers, rtu.NewServer(srvCfg.Serial))
		default:
			slog.Error("Unknown server type", "type", srvCfg.Type)
		}
	}
	if len(servers) == 0 {
		slog.Error("No valid servers configured. Exiting.")
		os.Exit(1)
	}

	dev := device.New(cfg.Device.Name, rsp, servers, storage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- dev.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
	<-errChan
	slog.Info("Goodbye.")
}

func newStorage(cfg config.DeviceConfig) persist.Storage {
	sizes := regionSizes(cfg.Regions)
	switch cfg.Persistence.Type {
	case "file":
		slog.Info("Initializing device with file persistence", "path", cfg.Persistence.Path)
		return persist.NewFileStorage(cfg.Persistence.Path, sizes)
	case "mmap":
		slog.Info("Initializing device with MMAP persistence", "path", cfg.Persistence.Path)
		return persist.NewMmapStorage(cfg.Persistence.Path, sizes)
	case "sql":
		slog.Info("Initializing device with SQL persistence", "driver", "sqlite3", "dsn", cfg.Persistence.Path)
		return persist.NewSQLStorage("sqlite3", cfg.Persistence.Path, sizes)
	default:
		slog.Info("Initializing device with memory storage (non-persistent)")
		return persist.NewMemoryStorage(sizes)
	}
}

func regionSizes(cfg config.RegionsConfig) store.Sizes {
	sizes := store.DefaultSizes
	if cfg.Coils > 0 {
		sizes.Coils = cfg.Coils
	}
	if cfg.DiscreteInputs > 0 {
		sizes.DiscreteInputs = cfg.DiscreteInputs
	}
	if cfg.HoldingRegisters > 0 {
		sizes.HoldingRegisters = cfg.HoldingRegisters
	}
	if cfg.InputRegisters > 0 {
		sizes.InputRegisters = cfg.InputRegisters
	}
	return sizes
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
