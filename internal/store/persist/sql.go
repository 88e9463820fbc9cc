// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package persist

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ffutop/modbus-device/internal/store"
)

// SQLStorage persists the regions in a SQL database, one row per point
// that has ever been written. OnWrite upserts the modified range, so the
// database tracks the live state in real time.
type SQLStorage struct {
	driver string
	dsn    string
	sizes  store.Sizes
	db     *sql.DB
	store  *store.Store
}

// NewSQLStorage creates a new SQLStorage.
// The driver (e.g. sqlite3) must be imported by the main package.
func NewSQLStorage(driver, dsn string, sizes store.Sizes) *SQLStorage {
	return &SQLStorage{
		driver: driver,
		dsn:    dsn,
		sizes:  sizes,
	}
}

// Load connects to the database and loads every stored point.
func (s *SQLStorage) Load() (*store.Store, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	s.db = db

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	st := store.New(s.sizes)
	s.store = st

	rows, err := db.Query("SELECT table_type, address, value FROM device_registers")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to query registers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t, addr, val int
		if err := rows.Scan(&t, &addr, &val); err != nil {
			continue
		}

		// Points beyond the configured sizes are stale rows; skip them.
		switch store.Table(t) {
		case store.TableCoils:
			if addr < len(st.Coils) {
				st.Coils[addr] = byte(val)
			}
		case store.TableDiscreteInputs:
			if addr < len(st.DiscreteInputs) {
				st.DiscreteInputs[addr] = byte(val)
			}
		case store.TableHoldingRegisters:
			if addr < len(st.HoldingRegisters) {
				st.HoldingRegisters[addr] = uint16(val)
			}
		case store.TableInputRegisters:
			if addr < len(st.InputRegisters) {
				st.InputRegisters[addr] = uint16(val)
			}
		}
	}

	return st, rows.Err()
}

func (s *SQLStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS device_registers (
		table_type INTEGER,
		address INTEGER,
		value INTEGER,
		PRIMARY KEY (table_type, address)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save is a no-op: OnWrite keeps the database current.
func (s *SQLStorage) Save(st *store.Store) error {
	return nil
}

// OnWrite upserts the changed points. Called after the store mutation, so
// the current values are read back from the store.
func (s *SQLStorage) OnWrite(table store.Table, address, quantity uint16) {
	if s.db == nil || s.store == nil {
		return
	}

	for i := 0; i < int(quantity); i++ {
		addr := int(address) + i
		var val int64

		switch table {
		case store.TableCoils:
			val = int64(s.store.Coils[addr])
		case store.TableDiscreteInputs:
			val = int64(s.store.DiscreteInputs[addr])
		case store.TableHoldingRegisters:
			val = int64(s.store.HoldingRegisters[addr])
		case store.TableInputRegisters:
			val = int64(s.store.InputRegisters[addr])
		}

		query := "INSERT INTO device_registers (table_type, address, value) VALUES (?, ?, ?) ON CONFLICT(table_type, address) DO UPDATE SET value=excluded.value"
		if _, err := s.db.Exec(query, int(table), addr, val); err != nil {
			slog.Error("Failed to persist register", "table", table, "addr", addr, "err", err)
		}
	}
}

func (s *SQLStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
