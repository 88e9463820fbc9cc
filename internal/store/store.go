// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package store holds the four addressable memory regions of a responding
// device. All protocol access goes through the bounds-checked read/write
// methods; the exported table slices exist for persistence mapping and
// host-side seeding only.
package store

import (
	"sync"

	"github.com/ffutop/modbus-device/modbus"
)

// MaxAddress is the highest addressable point in the 16-bit address space.
const MaxAddress = 65535

// Table identifies one of the four memory regions.
type Table int

const (
	TableCoils Table = iota
	TableDiscreteInputs
	TableHoldingRegisters
	TableInputRegisters
)

func (t Table) String() string {
	switch t {
	case TableCoils:
		return "coils"
	case TableDiscreteInputs:
		return "discrete inputs"
	case TableHoldingRegisters:
		return "holding registers"
	case TableInputRegisters:
		return "input registers"
	default:
		return "unknown table"
	}
}

// Sizes configures the length of each region.
type Sizes struct {
	Coils            int
	DiscreteInputs   int
	HoldingRegisters int
	InputRegisters   int
}

// DefaultSizes covers the full 16-bit address space for every region.
var DefaultSizes = Sizes{
	Coils:            MaxAddress + 1,
	DiscreteInputs:   MaxAddress + 1,
	HoldingRegisters: MaxAddress + 1,
	InputRegisters:   MaxAddress + 1,
}

// WriteHook is invoked after every successful write with the modified
// table and range, outside the store's lock. Persistence backends use it
// to sync changes.
type WriteHook func(table Table, address uint16, quantity uint16)

// Store aggregates the four memory regions of one responding device.
// Bit tables store one byte per point, 1 (ON) or 0 (OFF).
type Store struct {
	mu   sync.RWMutex
	hook WriteHook

	// 0x Coils (Read/Write).
	Coils []byte
	// 1x Discrete Inputs (Read Only via the protocol).
	DiscreteInputs []byte
	// 4x Holding Registers (Read/Write).
	HoldingRegisters []uint16
	// 3x Input Registers (Read Only via the protocol).
	InputRegisters []uint16
}

// New creates a Store with zeroed regions of the given sizes.
func New(sizes Sizes) *Store {
	return &Store{
		Coils:            make([]byte, sizes.Coils),
		DiscreteInputs:   make([]byte, sizes.DiscreteInputs),
		HoldingRegisters: make([]uint16, sizes.HoldingRegisters),
		InputRegisters:   make([]uint16, sizes.InputRegisters),
	}
}

// Sizes reports the configured region lengths.
func (s *Store) Sizes() Sizes {
	return Sizes{
		Coils:            len(s.Coils),
		DiscreteInputs:   len(s.DiscreteInputs),
		HoldingRegisters: len(s.HoldingRegisters),
		InputRegisters:   len(s.InputRegisters),
	}
}

// SetWriteHook installs the post-write hook. Must be called before the
// store is shared with the dispatch engine.
func (s *Store) SetWriteHook(hook WriteHook) {
	s.hook = hook
}

// ReadCoils returns a copy of count coil states starting at start.
func (s *Store) ReadCoils(start, count uint16) ([]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readBits(s.Coils, TableCoils, start, count)
}

// ReadDiscreteInputs returns a copy of count discrete input states.
func (s *Store) ReadDiscreteInputs(start, count uint16) ([]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readBits(s.DiscreteInputs, TableDiscreteInputs, start, count)
}

// ReadHoldingRegisters returns a copy of count holding register values.
func (s *Store) ReadHoldingRegisters(start, count uint16) ([]uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readWords(s.HoldingRegisters, TableHoldingRegisters, start, count)
}

// ReadInputRegisters returns a copy of count input register values.
func (s *Store) ReadInputRegisters(start, count uint16) ([]uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readWords(s.InputRegisters, TableInputRegisters, start, count)
}

// WriteCoils overwrites coils [start, start+len(values)) in index order.
// The bounds check precedes any mutation; a failed write changes nothing.
func (s *Store) WriteCoils(start uint16, values []bool) error {
	s.mu.Lock()
	if err := checkRange(TableCoils, start, len(values), len(s.Coils)); err != nil {
		s.mu.Unlock()
		return err
	}
	for i, v := range values {
		s.Coils[int(start)+i] = bit(v)
	}
	s.mu.Unlock()

	s.notify(TableCoils, start, uint16(len(values)))
	return nil
}

// WriteDiscreteInputs seeds discrete inputs. Not reachable from the
// protocol; the host uses it to publish physical input states.
func (s *Store) WriteDiscreteInputs(start uint16, values []bool) error {
	s.mu.Lock()
	if err := checkRange(TableDiscreteInputs, start, len(values), len(s.DiscreteInputs)); err != nil {
		s.mu.Unlock()
		return err
	}
	for i, v := range values {
		s.DiscreteInputs[int(start)+i] = bit(v)
	}
	s.mu.Unlock()

	s.notify(TableDiscreteInputs, start, uint16(len(values)))
	return nil
}

// WriteHoldingRegisters overwrites holding registers [start, start+len(values)).
func (s *Store) WriteHoldingRegisters(start uint16, values []uint16) error {
	s.mu.Lock()
	if err := checkRange(TableHoldingRegisters, start, len(values), len(s.HoldingRegisters)); err != nil {
		s.mu.Unlock()
		return err
	}
	copy(s.HoldingRegisters[start:], values)
	s.mu.Unlock()

	s.notify(TableHoldingRegisters, start, uint16(len(values)))
	return nil
}

// WriteInputRegisters seeds input registers. Not reachable from the
// protocol; the host uses it to publish measurements.
func (s *Store) WriteInputRegisters(start uint16, values []uint16) error {
	s.mu.Lock()
	if err := checkRange(TableInputRegisters, start, len(values), len(s.InputRegisters)); err != nil {
		s.mu.Unlock()
		return err
	}
	copy(s.InputRegisters[start:], values)
	s.mu.Unlock()

	s.notify(TableInputRegisters, start, uint16(len(values)))
	return nil
}

func (s *Store) notify(table Table, address, quantity uint16) {
	if s.hook != nil {
		s.hook(table, address, quantity)
	}
}

func readBits(table []byte, t Table, start, count uint16) ([]bool, error) {
	if err := checkRange(t, start, int(count), len(table)); err != nil {
		return nil, err
	}
	values := make([]bool, count)
	for i := range values {
		values[i] = table[int(start)+i] != 0
	}
	return values, nil
}

func readWords(table []uint16, t Table, start, count uint16) ([]uint16, error) {
	if err := checkRange(t, start, int(count), len(table)); err != nil {
		return nil, err
	}
	values := make([]uint16, count)
	copy(values, table[start:int(start)+int(count)])
	return values, nil
}

func checkRange(t Table, start uint16, count, length int) error {
	if count == 0 || int(start)+count > length {
		return &modbus.AddressRangeError{
			Region: t.String(),
			Start:  start,
			Count:  count,
			Length: length,
		}
	}
	return nil
}

func bit(v bool) byte {
	if v {
		return 1
	}
	return 0
}
