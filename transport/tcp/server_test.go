// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ffutop/modbus-device/modbus"
)

func startTestServer(t *testing.T, handler func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error)) net.Conn {
	t.Helper()

	// Setup server on a pre-allocated port to avoid a race on s.listener.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close() // Close so Server can bind to it immediately

	s := NewServer(addr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = s.Start(ctx, handler)
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
		t.Fatalf("Failed to connect to server after retries, last error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func buildADU(transactionID uint16, unitID byte, pdu []byte) []byte {
	// ADU: [TransID(2)] [Proto(2)] [Len(2)] [UnitID(1)] [Func+Data...]
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

func TestServer_Start_And_Handle(t *testing.T) {
	handler := func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
		if unitID != 1 {
			t.Errorf("Handler expected unitID 1, got %d", unitID)
		}
		q, ok := req.(modbus.ReadHoldingRegistersRequest)
		if !ok {
			t.Errorf("Handler got request type %T", req)
		}
		if q.Start != 1 || q.Quantity != 1 {
			t.Errorf("Handler got %+v", q)
		}
		return modbus.ReadHoldingRegistersResponse{Values: []uint16{0xAABB}}, nil
	}
	conn := startTestServer(t, handler)

	// Read 1 holding register at address 1.
	resp := exchange(t, conn, buildADU(123, 1, []byte{0x03, 0x00, 0x01, 0x00, 0x01}))

	if got := binary.BigEndian.Uint16(resp[0:]); got != 123 {
		t.Errorf("Response transaction ID = %d, want 123", got)
	}
	if resp[6] != 1 {
		t.Errorf("Response unit ID = %d, want 1", resp[6])
	}
	if resp[7] != 0x03 {
		t.Errorf("Response function code = 0x%02X, want 0x03", resp[7])
	}
	// ByteCount + one register.
	if resp[8] != 0x02 || resp[9] != 0xAA || resp[10] != 0xBB {
		t.Errorf("Response payload = %X", resp[8:])
	}
}

func TestServer_ErrorsBecomeExceptionResponses(t *testing.T) {
	handler := func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
		return nil, &modbus.AddressRangeError{Region: "holding registers", Start: 8, Count: 5, Length: 10}
	}
	conn := startTestServer(t, handler)

	resp := exchange(t, conn, buildADU(7, 1, []byte{0x03, 0x00, 0x08, 0x00, 0x05}))

	if resp[7] != 0x83 {
		t.Errorf("Response function code = 0x%02X, want 0x83", resp[7])
	}
	if resp[8] != modbus.ExceptionCodeIllegalDataAddress {
		t.Errorf("Exception code = 0x%02X, want 0x02", resp[8])
	}
}

func TestServer_MalformedPayloadRejectedBeforeHandler(t *testing.T) {
	handler := func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
		t.Error("handler must not run for a malformed payload")
		return nil, nil
	}
	conn := startTestServer(t, handler)

	// Read request with a truncated payload.
	resp := exchange(t, conn, buildADU(8, 1, []byte{0x03, 0x00, 0x01}))

	if resp[7] != 0x83 {
		t.Errorf("Response function code = 0x%02X, want 0x83", resp[7])
	}
	if resp[8] != modbus.ExceptionCodeIllegalDataValue {
		t.Errorf("Exception code = 0x%02X, want 0x03", resp[8])
	}
}

func TestServer_SplitSegmentRequest(t *testing.T) {
	handler := func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
		return modbus.ReadHoldingRegistersResponse{Values: []uint16{0x0042}}, nil
	}
	conn := startTestServer(t, handler)

	// One request delivered in two TCP segments, cut inside the MBAP header.
	req := buildADU(9, 1, []byte{0x03, 0x00, 0x01, 0x00, 0x01})
	if _, err := conn.Write(req[:4]); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := conn.Write(req[4:]); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 11)
	if _, err := io.ReadFull(conn, resp); err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if got := binary.BigEndian.Uint16(resp[0:]); got != 9 {
		t.Errorf("Response transaction ID = %d, want 9", got)
	}
	if resp[7] != 0x03 || resp[8] != 0x02 || binary.BigEndian.Uint16(resp[9:]) != 0x0042 {
		t.Errorf("Response payload = %X", resp[7:])
	}
}

func TestServer_PipelinedRequestsInOneSegment(t *testing.T) {
	handler := func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
		q := req.(modbus.ReadHoldingRegistersRequest)
		return modbus.ReadHoldingRegistersResponse{Values: []uint16{q.Start}}, nil
	}
	conn := startTestServer(t, handler)

	// Two complete requests in a single write must yield two responses in
	// request order, not desync the stream.
	reqs := append(
		buildADU(1, 1, []byte{0x03, 0x00, 0x0A, 0x00, 0x01}),
		buildADU(2, 1, []byte{0x03, 0x00, 0x0B, 0x00, 0x01})...)
	if _, err := conn.Write(reqs); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, want := range []struct {
		transactionID uint16
		value         uint16
	}{{1, 0x0A}, {2, 0x0B}} {
		resp := make([]byte, 11)
		if _, err := io.ReadFull(conn, resp); err != nil {
			t.Fatalf("Failed to read response %d: %v", i, err)
		}
		if got := binary.BigEndian.Uint16(resp[0:]); got != want.transactionID {
			t.Errorf("Response %d transaction ID = %d, want %d", i, got, want.transactionID)
		}
		if got := binary.BigEndian.Uint16(resp[9:]); got != want.value {
			t.Errorf("Response %d value = 0x%04X, want 0x%04X", i, got, want.value)
		}
	}
}

func TestADU_EncodeDecode(t *testing.T) {
	orig := &ApplicationDataUnit{
		TransactionID: 42,
		ProtocolID:    0,
		Length:        6,
		UnitID:        3,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: 0x03,
			Data:         []byte{0x00, 0x01, 0x00, 0x02},
		},
	}
	raw, err := orig.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.TransactionID != 42 || decoded.UnitID != 3 || decoded.Pdu.FunctionCode != 0x03 {
		t.Errorf("decoded = %+v", decoded)
	}
}
