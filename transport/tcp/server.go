// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/ffutop/modbus-device/modbus"
	"github.com/ffutop/modbus-device/transport"
)

// Server implements a Modbus TCP server answering for one device.
type Server struct {
	Address string
	Handler transport.Handler

	listener net.Listener
}

// NewServer creates a new TCP Server.
func NewServer(address string) *Server {
	return &Server{
		Address: address,
	}
}

// Start starts the TCP server.
func (s *Server) Start(ctx context.Context, handler transport.Handler) error {
	s.Handler = handler
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Address, err)
	}
	s.listener = listener
	slog.Info("Modbus TCP server listening", "addr", s.Address)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if closed
			select {
			case <-ctx.Done():
				return nil
			default:
				slog.Error("Failed to accept connection", "err", err)
				continue
			}
		}
		go s.handleConnection(ctx, conn)
	}
}

// Close closes the server listener.
func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	slog.Info("New TCP client connected", "addr", conn.RemoteAddr())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Frame on the MBAP header: the Length field counts the unit ID
		// plus the PDU, so the full ADU is 6+Length bytes.
		header := make([]byte, 7)
		if _, err := io.ReadFull(conn, header); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("TCP client disconnected gracefully", "addr", conn.RemoteAddr())
			} else {
				slog.Error("Failed to read from connection", "addr", conn.RemoteAddr(), "err", err)
			}
			return
		}

		length := int(binary.BigEndian.Uint16(header[4:6]))
		if length < 2 || 6+length > tcpMaxSize {
			slog.Error("Invalid request length", "length", length)
			return
		}

		buf := make([]byte, 6+length)
		copy(buf, header)
		if _, err := io.ReadFull(conn, buf[7:]); err != nil {
			slog.Error("Failed to read request body", "addr", conn.RemoteAddr(), "err", err)
			return
		}

		adu, err := Decode(buf)
		if err != nil {
			slog.Error("Failed to decode TCP request", "err", err)
			continue
		}

		if s.Handler == nil {
			slog.Error("No handler defined for TCP server")
			return
		}

		respPdu, drop := s.process(ctx, adu)
		if drop {
			continue
		}

		respRaw, err := adu.respond(respPdu).Encode()
		if err != nil {
			slog.Error("Failed to encode TCP response", "err", err)
			continue
		}

		if _, err := conn.Write(respRaw); err != nil {
			slog.Error("Failed to write response to connection", "err", err)
			return
		}
	}
}

// process decodes the request PDU, applies it, and maps failures onto
// protocol exception responses. drop reports that no response at all
// should be sent (request for another unit).
func (s *Server) process(ctx context.Context, adu *ApplicationDataUnit) (resp modbus.ProtocolDataUnit, drop bool) {
	fc := modbus.FunctionCode(adu.Pdu.FunctionCode)

	req, err := modbus.DecodeRequest(adu.Pdu)
	if err != nil {
		slog.Error("Malformed request payload", "unit", adu.UnitID, "func", fc.String(), "err", err)
		return modbus.ExceptionPDU(fc, modbus.ExceptionCodeFor(err)), false
	}

	response, err := s.Handler(ctx, adu.UnitID, req)
	if err != nil {
		if errors.Is(err, modbus.ErrWrongUnit) {
			return modbus.ProtocolDataUnit{}, true
		}
		return modbus.ExceptionPDU(fc, modbus.ExceptionCodeFor(err)), false
	}

	respPdu, err := modbus.EncodeResponse(response)
	if err != nil {
		slog.Error("Failed to encode response", "unit", adu.UnitID, "err", err)
		return modbus.ExceptionPDU(fc, modbus.ExceptionCodeServerDeviceFailure), false
	}
	return respPdu, false
}
