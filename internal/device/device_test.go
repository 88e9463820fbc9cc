// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package device

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/ffutop/modbus-device/internal/responder"
	"github.com/ffutop/modbus-device/internal/store"
	"github.com/ffutop/modbus-device/internal/store/persist"
	"github.com/ffutop/modbus-device/transport"
	"github.com/ffutop/modbus-device/transport/tcp"
)

func TestDeviceServesRequestsEndToEnd(t *testing.T) {
	// Pre-allocate a free port so the test can dial it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	storage := persist.NewMemoryStorage(store.Sizes{
		Coils: 16, DiscreteInputs: 16, HoldingRegisters: 10, InputRegisters: 10,
	})
	st, err := storage.Load()
	if err != nil {
		t.Fatal(err)
	}
	st.SetWriteHook(storage.OnWrite)

	rsp := responder.New(1, st, nil)
	dev := New("test-device", rsp, []transport.Server{tcp.NewServer(addr)}, storage)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- dev.Start(ctx)
	}()

	var conn net.Conn
	for i := 0; i < 20; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if conn == nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// WriteSingleRegister(address=4, value=42)
	req := buildADU(1, 1, []byte{0x06, 0x00, 0x04, 0x00, 0x2A})
	resp := exchange(t, conn, req)
	if resp[7] != 0x06 {
		t.Fatalf("write response function code = 0x%02X", resp[7])
	}

	// ReadHoldingRegisters(start=4, quantity=1) sees the written value.
	req = buildADU(2, 1, []byte{0x03, 0x00, 0x04, 0x00, 0x01})
	resp = exchange(t, conn, req)
	if resp[7] != 0x03 || resp[8] != 0x02 {
		t.Fatalf("read response header = %X", resp[7:9])
	}
	if got := binary.BigEndian.Uint16(resp[9:]); got != 42 {
		t.Errorf("register value = %d, want 42", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("device did not shut down")
	}
}

func buildADU(transactionID uint16, unitID byte, pdu []byte) []byte {
	adu := make([]byte, 7+len(pdu))
	binary.BigEndian.PutUint16(adu[0:], transactionID)
	binary.BigEndian.PutUint16(adu[2:], 0)
	binary.BigEndian.PutUint16(adu[4:], uint16(1+len(pdu)))
	adu[6] = unitID
	copy(adu[7:], pdu)
	return adu
}

func exchange(t *testing.T, conn net.Conn, req []byte) []byte {
	t.Helper()
	if _, err := conn.Write(req); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 260)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return buf[:n]
}
