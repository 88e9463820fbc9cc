// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package persist

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ffutop/modbus-device/internal/store"
)

// FileStorage persists the regions in a flat file, rewritten and synced on
// every write. Region contents alias the in-memory file image, so a sync
// is a plain WriteAt of the whole image.
type FileStorage struct {
	path   string
	layout layout
	file   *os.File
	data   []byte
}

// NewFileStorage creates a new FileStorage for regions of the given sizes.
func NewFileStorage(path string, sizes store.Sizes) *FileStorage {
	return &FileStorage{
		path:   path,
		layout: layoutFor(sizes),
	}
}

// Load reads the file into memory and maps the regions over it.
// A file of the wrong size is truncated to the layout's size; stale
// content beyond the new size is discarded.
func (fs *FileStorage) Load() (*store.Store, error) {
	f, err := os.OpenFile(fs.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	fs.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(fs.layout.total) {
		if err := f.Truncate(int64(fs.layout.total)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resize file: %w", err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fs.data = data

	return fs.layout.mapBytesToStore(data), nil
}

// Save flushes the full image to disk.
func (fs *FileStorage) Save(s *store.Store) error {
	return fs.sync()
}

// OnWrite syncs the file after each mutation.
func (fs *FileStorage) OnWrite(table store.Table, address, quantity uint16) {
	if err := fs.sync(); err != nil {
		slog.Error("Failed to sync file", "err", err)
	}
}

func (fs *FileStorage) sync() error {
	if fs.data == nil || fs.file == nil {
		return nil
	}
	if _, err := fs.file.WriteAt(fs.data, 0); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := fs.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file to disk: %w", err)
	}
	return nil
}

// Close the file.
func (fs *FileStorage) Close() error {
	if fs.file == nil {
		return nil
	}
	return fs.file.Close()
}
