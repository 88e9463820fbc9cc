// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package responder implements the request dispatch engine of a responding
// device: it maps each decoded request onto the correct memory region
// operations and assembles the response.
package responder

import (
	"context"
	"log/slog"

	"github.com/ffutop/modbus-device/internal/store"
	"github.com/ffutop/modbus-device/modbus"
)

// Observer is notified with every accepted request before it is applied.
// Observers run synchronously in registration order; they cannot alter the
// response, and a panicking observer is recovered and logged.
type Observer func(unitID byte, req modbus.Request)

// Responder applies decoded requests against a Store. It is stateless
// across calls: each ApplyRequest is a pure function of (request, store)
// plus the observer notification side effect.
type Responder struct {
	unitID    byte
	store     *store.Store
	log       *slog.Logger
	observers []Observer
}

// New creates a Responder for the given unit ID. A nil logger falls back
// to slog.Default().
func New(unitID byte, st *store.Store, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		unitID: unitID,
		store:  st,
		log:    logger,
	}
}

// UnitID returns the unit address this responder answers for.
func (r *Responder) UnitID() byte { return r.unitID }

// Subscribe registers an observer. Not safe to call concurrently with
// ApplyRequest; register observers during setup.
func (r *Responder) Subscribe(obs Observer) {
	r.observers = append(r.observers, obs)
}

// Handle adapts the responder to a transport handler. Requests addressed
// to another unit are refused with modbus.ErrWrongUnit so the transport
// can drop them without a response.
func (r *Responder) Handle(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error) {
	if unitID != r.unitID {
		return nil, modbus.ErrWrongUnit
	}
	return r.ApplyRequest(req)
}

// ApplyRequest validates and performs one request and builds its response.
// All observers see the request before any region is touched, including
// requests that subsequently fail.
func (r *Responder) ApplyRequest(req modbus.Request) (modbus.Response, error) {
	if req == nil {
		return nil, &modbus.InvalidRequestTypeError{Reason: "nil request"}
	}

	r.notify(req)
	r.log.Info("Request accepted", "unit", r.unitID, "request", req.String())

	switch q := req.(type) {
	case modbus.ReadCoilsRequest:
		values, err := r.store.ReadCoils(q.Start, q.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.ReadCoilsResponse{Values: values}, nil

	case modbus.ReadDiscreteInputsRequest:
		values, err := r.store.ReadDiscreteInputs(q.Start, q.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.ReadDiscreteInputsResponse{Values: values}, nil

	case modbus.ReadHoldingRegistersRequest:
		values, err := r.store.ReadHoldingRegisters(q.Start, q.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.ReadHoldingRegistersResponse{Values: values}, nil

	case modbus.ReadInputRegistersRequest:
		values, err := r.store.ReadInputRegisters(q.Start, q.Quantity)
		if err != nil {
			return nil, err
		}
		return modbus.ReadInputRegistersResponse{Values: values}, nil

	case modbus.DiagnosticsRequest:
		echo := make([]byte, len(q.Data))
		copy(echo, q.Data)
		return modbus.DiagnosticsResponse{SubFunction: q.SubFunction, Data: echo}, nil

	case modbus.WriteSingleCoilRequest:
		// 0xFF00 is the ON sentinel; every other value switches OFF.
		on := q.Value == 0xFF00
		if err := r.store.WriteCoils(q.Address, []bool{on}); err != nil {
			return nil, err
		}
		return modbus.WriteSingleCoilResponse{Address: q.Address, Value: q.Value}, nil

	case modbus.WriteSingleRegisterRequest:
		if err := r.store.WriteHoldingRegisters(q.Address, []uint16{q.Value}); err != nil {
			return nil, err
		}
		return modbus.WriteSingleRegisterResponse{Address: q.Address, Value: q.Value}, nil

	case modbus.WriteMultipleCoilsRequest:
		if err := r.store.WriteCoils(q.Start, q.Values); err != nil {
			return nil, err
		}
		return modbus.WriteMultipleCoilsResponse{Start: q.Start, Quantity: uint16(len(q.Values))}, nil

	case modbus.WriteMultipleRegistersRequest:
		if err := r.store.WriteHoldingRegisters(q.Start, q.Values); err != nil {
			return nil, err
		}
		return modbus.WriteMultipleRegistersResponse{Start: q.Start, Quantity: uint16(len(q.Values))}, nil

	case modbus.ReadWriteMultipleRegistersRequest:
		// Read precedes write; the response must not see the write's effect.
		values, err := r.store.ReadHoldingRegisters(q.ReadStart, q.ReadQuantity)
		if err != nil {
			return nil, err
		}
		if err := r.store.WriteHoldingRegisters(q.WriteStart, q.WriteValues); err != nil {
			return nil, err
		}
		return modbus.ReadWriteMultipleRegistersResponse{Values: values}, nil

	default:
		err := &modbus.UnsupportedFunctionError{Code: req.FunctionCode()}
		r.log.Error("Unsupported function code", "unit", r.unitID, "code", byte(req.FunctionCode()))
		return nil, err
	}
}

func (r *Responder) notify(req modbus.Request) {
	for _, obs := range r.observers {
		r.notifyOne(obs, req)
	}
}

func (r *Responder) notifyOne(obs Observer, req modbus.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Request observer panicked", "unit", r.unitID, "panic", rec)
		}
	}()
	obs(r.unitID, req)
}
