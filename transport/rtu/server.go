// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/grid-x/serial"

	"github.com/ffutop/modbus-device/internal/config"
	"github.com/ffutop/modbus-device/modbus"
	"github.com/ffutop/modbus-device/transport"
)

// Server implements a Modbus RTU server: a slave on the serial bus,
// waiting for requests from an external master.
type Server struct {
	Config config.SerialConfig
}

// NewServer creates a new RTU Server.
func NewServer(cfg config.SerialConfig) *Server {
	return &Server{
		Config: cfg,
	}
}

// Start opens the serial port and serves until ctx is done.
func (s *Server) Start(ctx context.Context, handler transport.Handler) error {
	spConfig := &serial.Config{
		Address:  s.Config.Device,
		BaudRate: s.Config.BaudRate,
		DataBits: s.Config.DataBits,
		StopBits: s.Config.StopBits,
		Parity:   s.Config.Parity,
		Timeout:  s.Config.Timeout, // Read timeout
	}

	port, err := serial.Open(spConfig)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.Config.Device, err)
	}
	defer port.Close()
	slog.Info("RTU server listening", "device", s.Config.Device)

	go func() {
		<-ctx.Done()
		port.Close()
	}()

	return s.scanLoop(ctx, port, handler)
}

func (s *Server) scanLoop(ctx context.Context, port io.ReadWriteCloser, handler transport.Handler) error {
	buf := make([]byte, rtuMaxSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// Read 1 byte to unblock, then enough header to size the frame.
		n, err := port.Read(buf[:1])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if n == 0 {
			continue
		}

		current := 1
		need := headerSize
		for current < need {
			n, err := port.Read(buf[current:need])
			if err != nil {
				break
			}
			current += n
		}
		if current < 2 {
			continue
		}

		functionCode := buf[1]
		// FC 0x17 carries its byte count deeper in the header.
		if modbus.FunctionCode(functionCode) == modbus.FuncCodeReadWriteMultipleRegisters {
			need = rwHeaderSize
			for current < need {
				n, err := port.Read(buf[current:need])
				if err != nil {
					break
				}
				current += n
			}
		}
		expectedLen, err := requestLength(functionCode, buf[:current])
		if err != nil || expectedLen > rtuMaxSize {
			// Unknown or oversized frame; resynchronize on the next request.
			continue
		}

		for current < expectedLen {
			n, err := port.Read(buf[current:expectedLen])
			if err != nil {
				break
			}
			current += n
		}
		if current != expectedLen {
			continue
		}

		adu, err := Decode(buf[:expectedLen])
		if err != nil {
			// CRC mismatch, corrupted frame.
			continue
		}

		s.dispatch(ctx, port, adu, handler)
	}
}

// dispatch applies one decoded frame and writes the response, mapping
// failures onto protocol exception responses. Requests for other units
// on the bus are dropped silently.
func (s *Server) dispatch(ctx context.Context, port io.Writer, adu *ApplicationDataUnit, handler transport.Handler) {
	fc := modbus.FunctionCode(adu.Pdu.FunctionCode)

	var respPdu modbus.ProtocolDataUnit
	req, err := modbus.DecodeRequest(adu.Pdu)
	if err != nil {
		slog.Error("Malformed request payload", "unit", adu.UnitID, "func", fc.String(), "err", err)
		respPdu = modbus.ExceptionPDU(fc, modbus.ExceptionCodeFor(err))
	} else {
		response, err := handler(ctx, adu.UnitID, req)
		switch {
		case errors.Is(err, modbus.ErrWrongUnit):
			return
		case err != nil:
			respPdu = modbus.ExceptionPDU(fc, modbus.ExceptionCodeFor(err))
		default:
			respPdu, err = modbus.EncodeResponse(response)
			if err != nil {
				slog.Error("Failed to encode response", "unit", adu.UnitID, "err", err)
				respPdu = modbus.ExceptionPDU(fc, modbus.ExceptionCodeServerDeviceFailure)
			}
		}
	}

	raw, err := (&ApplicationDataUnit{UnitID: adu.UnitID, Pdu: respPdu}).Encode()
	if err != nil {
		slog.Error("Failed to encode RTU response", "err", err)
		return
	}
	if _, err := port.Write(raw); err != nil {
		slog.Error("Failed to write RTU response", "err", err)
	}
}

// headerSize covers a frame through the byte count of a write-multiple
// request; rwHeaderSize through the byte count of an FC 0x17 request.
const (
	headerSize   = 7
	rwHeaderSize = 11
)

// requestLength returns the expected total length of a request ADU based
// on its header bytes.
func requestLength(funcCode byte, header []byte) (int, error) {
	switch modbus.FunctionCode(funcCode) {
	case modbus.FuncCodeReadCoils,
		modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadHoldingRegisters,
		modbus.FuncCodeReadInputRegisters,
		modbus.FuncCodeWriteSingleCoil,
		modbus.FuncCodeWriteSingleRegister,
		modbus.FuncCodeDiagnostics:
		// Fixed 8 bytes: [UnitID, Func, Addr(2), Val(2), CRC(2)]
		return 8, nil
	case modbus.FuncCodeWriteMultipleCoils,
		modbus.FuncCodeWriteMultipleRegister:
		// Req: [UnitID, Func, Addr(2), Quant(2), ByteCount(1), Data(N), CRC(2)]
		if len(header) < 7 {
			return 0, fmt.Errorf("need 7 bytes to determine length for 0x%02X, got %d", funcCode, len(header))
		}
		return 7 + int(header[6]) + 2, nil
	case modbus.FuncCodeReadWriteMultipleRegisters:
		// Req: [UnitID, Func, RdAddr(2), RdQuant(2), WrAddr(2), WrQuant(2), ByteCount(1), Data(N), CRC(2)]
		if len(header) < 11 {
			return 0, fmt.Errorf("need 11 bytes to determine length for 0x%02X, got %d", funcCode, len(header))
		}
		return 11 + int(header[10]) + 2, nil
	default:
		// Unknown request sizes cannot be framed reliably; discard.
		return 0, fmt.Errorf("unsupported function code: 0x%02X", funcCode)
	}
}

func (s *Server) Close() error {
	return nil
}
