// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"errors"
	"fmt"
)

// ErrWrongUnit reports a request addressed to a unit this device does not
// serve. Transports drop such requests without a response, matching the
// behavior of a slave ignoring another slave's traffic on a shared bus.
var ErrWrongUnit = errors.New("modbus: request addressed to another unit")

// AddressRangeError reports a read or write whose address range falls
// outside a memory region. The region is left unmodified.
type AddressRangeError struct {
	Region string
	Start  uint16
	Count  int
	Length int
}

func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("modbus: range [%d, %d) out of bounds for %s of length %d",
		e.Start, int(e.Start)+e.Count, e.Region, e.Length)
}

// UnsupportedFunctionError reports a request whose function code is not in
// the supported set. No memory region is accessed for such a request.
type UnsupportedFunctionError struct {
	Code FunctionCode
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("modbus: unsupported function code 0x%02X", byte(e.Code))
}

// InvalidRequestTypeError reports a request whose payload does not match
// its stated function code. Raised before any memory access.
type InvalidRequestTypeError struct {
	Code   FunctionCode
	Reason string
}

func (e *InvalidRequestTypeError) Error() string {
	return fmt.Sprintf("modbus: invalid %v request: %s", e.Code, e.Reason)
}

// ExceptionCodeFor maps an engine error to the protocol-level exception
// code a listening loop should answer with.
func ExceptionCodeFor(err error) byte {
	var (
		rangeErr   *AddressRangeError
		funcErr    *UnsupportedFunctionError
		requestErr *InvalidRequestTypeError
	)
	switch {
	case errors.As(err, &rangeErr):
		return ExceptionCodeIllegalDataAddress
	case errors.As(err, &funcErr):
		return ExceptionCodeIllegalFunction
	case errors.As(err, &requestErr):
		return ExceptionCodeIllegalDataValue
	default:
		return ExceptionCodeServerDeviceFailure
	}
}
