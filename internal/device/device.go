// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package device

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ffutop/modbus-device/internal/responder"
	"github.com/ffutop/modbus-device/internal/store/persist"
	"github.com/ffutop/modbus-device/transport"
)

// Device represents one responding device: a dispatch engine answering on
// one or more server transports, with its memory regions behind a storage
// backend.
type Device struct {
	Name      string
	Responder *responder.Responder
	Servers   []transport.Server
	Storage   persist.Storage
}

// New creates a new Device instance
func New(name string, rsp *responder.Responder, servers []transport.Server, storage persist.Storage) *Device {
	return &Device{
		Name:      name,
		Responder: rsp,
		Servers:   servers,
		Storage:   storage,
	}
}

// Start starts all servers and blocks until ctx is done, then shuts the
// servers down and closes the storage.
func (d *Device) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for i, srv := range d.Servers {
		wg.Add(1)
		go func(s transport.Server, idx int) {
			defer wg.Done()
			slog.Info("Starting server", "device", d.Name, "index", idx)
			if err := s.Start(ctx, d.Responder.Handle); err != nil {
				slog.Error("Server stopped with error", "device", d.Name, "index", idx, "err", err)
			}
		}(srv, i)
	}

	<-ctx.Done()

	for _, srv := range d.Servers {
		srv.Close()
	}
	wg.Wait()

	if d.Storage != nil {
		if err := d.Storage.Close(); err != nil {
			slog.Error("Failed to close storage", "device", d.Name, "err", err)
		}
	}
	return nil
}
