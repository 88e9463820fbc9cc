// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package transport

import (
	"context"

	"github.com/ffutop/modbus-device/modbus"
)

// Handler applies one decoded request and returns the response.
// A modbus.ErrWrongUnit error means the request belongs to another unit
// on the bus; the transport drops it without a response. Any other error
// is translated into a protocol exception response by the transport.
type Handler func(ctx context.Context, unitID byte, req modbus.Request) (modbus.Response, error)

// Server accepts framed requests from a Modbus master, decodes them into
// request values, and answers with the handler's responses.
type Server interface {
	// Start runs the server and blocks until ctx is done or the listener
	// fails. It should be called in a goroutine.
	Start(ctx context.Context, handler Handler) error
	Close() error
}
