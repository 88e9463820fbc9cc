// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ffutop/modbus-device/modbus"
)

func testSizes() Sizes {
	return Sizes{
		Coils:            16,
		DiscreteInputs:   16,
		HoldingRegisters: 10,
		InputRegisters:   10,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(testSizes())

	coils := []bool{true, false, true}
	if err := s.WriteCoils(0, coils); err != nil {
		t.Fatalf("WriteCoils failed: %v", err)
	}
	got, err := s.ReadCoils(0, 3)
	if err != nil {
		t.Fatalf("ReadCoils failed: %v", err)
	}
	if !reflect.DeepEqual(got, coils) {
		t.Errorf("ReadCoils = %v, want %v", got, coils)
	}

	regs := []uint16{7, 42, 65535}
	if err := s.WriteHoldingRegisters(4, regs); err != nil {
		t.Fatalf("WriteHoldingRegisters failed: %v", err)
	}
	gotRegs, err := s.ReadHoldingRegisters(4, 3)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters failed: %v", err)
	}
	if !reflect.DeepEqual(gotRegs, regs) {
		t.Errorf("ReadHoldingRegisters = %v, want %v", gotRegs, regs)
	}
}

func TestReadIsIdempotent(t *testing.T) {
	s := New(testSizes())
	if err := s.WriteInputRegisters(0, []uint16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	first, err := s.ReadInputRegisters(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ReadInputRegisters(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ: %v vs %v", first, second)
	}
}

func TestReadReturnsIndependentCopy(t *testing.T) {
	s := New(testSizes())
	if err := s.WriteHoldingRegisters(0, []uint16{10, 20}); err != nil {
		t.Fatal(err)
	}

	snapshot, err := s.ReadHoldingRegisters(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteHoldingRegisters(0, []uint16{99, 99}); err != nil {
		t.Fatal(err)
	}
	if snapshot[0] != 10 || snapshot[1] != 20 {
		t.Errorf("snapshot mutated by later write: %v", snapshot)
	}
}

func TestReadOutOfRange(t *testing.T) {
	s := New(testSizes())

	// 8+5 = 13 > 10
	_, err := s.ReadHoldingRegisters(8, 5)
	var rangeErr *modbus.AddressRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("want AddressRangeError, got %v", err)
	}
	if rangeErr.Start != 8 || rangeErr.Count != 5 || rangeErr.Length != 10 {
		t.Errorf("unexpected error details: %+v", rangeErr)
	}
}

func TestZeroCountRejected(t *testing.T) {
	s := New(testSizes())

	if _, err := s.ReadCoils(0, 0); err == nil {
		t.Error("ReadCoils with count 0 should fail")
	}
	var rangeErr *modbus.AddressRangeError
	if err := s.WriteCoils(0, nil); !errors.As(err, &rangeErr) {
		t.Errorf("WriteCoils with no values: want AddressRangeError, got %v", err)
	}
}

func TestFailedWriteLeavesRegionUnmodified(t *testing.T) {
	s := New(testSizes())
	if err := s.WriteHoldingRegisters(0, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}); err != nil {
		t.Fatal(err)
	}

	// Write starting in range but running past the end.
	if err := s.WriteHoldingRegisters(8, []uint16{100, 101, 102}); err == nil {
		t.Fatal("out-of-range write should fail")
	}

	got, err := s.ReadHoldingRegisters(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("region modified by failed write: %v", got)
	}
}

func TestRegionsAreIndependent(t *testing.T) {
	s := New(testSizes())
	if err := s.WriteCoils(0, []bool{true, true}); err != nil {
		t.Fatal(err)
	}

	discretes, err := s.ReadDiscreteInputs(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range discretes {
		if v {
			t.Errorf("discrete input %d set by coil write", i)
		}
	}
}

func TestWriteHookObservesWrites(t *testing.T) {
	s := New(testSizes())

	type writeEvent struct {
		table    Table
		address  uint16
		quantity uint16
	}
	var events []writeEvent
	s.SetWriteHook(func(table Table, address, quantity uint16) {
		events = append(events, writeEvent{table, address, quantity})
	})

	if err := s.WriteCoils(2, []bool{true}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteHoldingRegisters(0, []uint16{5, 6}); err != nil {
		t.Fatal(err)
	}
	// A failed write must not fire the hook.
	_ = s.WriteCoils(15, []bool{true, true})

	want := []writeEvent{
		{TableCoils, 2, 1},
		{TableHoldingRegisters, 0, 2},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("hook events = %v, want %v", events, want)
	}
}
