// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package persist

import "github.com/ffutop/modbus-device/internal/store"

// MemoryStorage is a no-op storage (non-persistent).
type MemoryStorage struct {
	sizes store.Sizes
}

func NewMemoryStorage(sizes store.Sizes) *MemoryStorage {
	return &MemoryStorage{sizes: sizes}
}

func (ms *MemoryStorage) Load() (*store.Store, error) {
	return store.New(ms.sizes), nil
}

func (ms *MemoryStorage) Save(s *store.Store) error {
	return nil
}

func (ms *MemoryStorage) OnWrite(table store.Table, address, quantity uint16) {
	// No-op
}

func (ms *MemoryStorage) Close() error {
	return nil
}
