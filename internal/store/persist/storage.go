// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package persist restores a device's memory regions across restarts.
package persist

import (
	"github.com/ffutop/modbus-device/internal/store"
)

// Storage persists the memory regions of one responding device.
type Storage interface {
	// Load loads the regions from storage, creating empty regions when no
	// data exists yet.
	Load() (*store.Store, error)

	// Save writes the full current state to storage.
	Save(s *store.Store) error

	// OnWrite is hooked into the store and called after every write,
	// allowing real-time persistence of the modified range.
	OnWrite(table store.Table, address, quantity uint16)

	Close() error
}
