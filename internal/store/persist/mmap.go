// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package persist

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ffutop/modbus-device/internal/store"
)

// MmapStorage persists the regions through a memory-mapped file. Writes
// land directly in the mapping; OnWrite only flushes dirty pages.
type MmapStorage struct {
	path   string
	layout layout
	file   *os.File
	data   mmap.MMap
}

// NewMmapStorage creates a new MmapStorage for regions of the given sizes.
func NewMmapStorage(path string, sizes store.Sizes) *MmapStorage {
	return &MmapStorage{
		path:   path,
		layout: layoutFor(sizes),
	}
}

// Load maps the file and overlays the regions on the mapping.
func (ms *MmapStorage) Load() (*store.Store, error) {
	f, err := os.OpenFile(ms.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open mmap file: %w", err)
	}
	ms.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(ms.layout.total) {
		if err := f.Truncate(int64(ms.layout.total)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resize mmap file: %w", err)
		}
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	ms.data = data

	return ms.layout.mapBytesToStore(data), nil
}

// Save flushes the mapping to disk.
func (ms *MmapStorage) Save(s *store.Store) error {
	if ms.data == nil {
		return fmt.Errorf("mmap data is nil")
	}
	return ms.data.Flush()
}

// OnWrite flushes the mapping after each mutation.
func (ms *MmapStorage) OnWrite(table store.Table, address, quantity uint16) {
	if ms.data == nil {
		return
	}
	if err := ms.data.Flush(); err != nil {
		slog.Error("Failed to flush mmap", "err", err)
	}
}

// Close unmaps and closes the file.
func (ms *MmapStorage) Close() error {
	var err error
	if ms.data != nil {
		if e := ms.data.Unmap(); e != nil {
			err = e
		}
		ms.data = nil
	}
	if ms.file != nil {
		if e := ms.file.Close(); e != nil {
			err = e
		}
		ms.file = nil
	}
	return err
}
