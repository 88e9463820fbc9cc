// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// ProtocolDataUnit is the transport-independent unit of a Modbus exchange:
// a function code followed by its payload bytes.
type ProtocolDataUnit struct {
	FunctionCode byte
	Data         []byte
}

// ExceptionPDU builds the exception response for a failed request.
func ExceptionPDU(fc FunctionCode, exceptionCode byte) ProtocolDataUnit {
	return ProtocolDataUnit{
		FunctionCode: byte(fc) | ExceptionFlag,
		Data:         []byte{exceptionCode},
	}
}
