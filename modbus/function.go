// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// FunctionCode identifies a Modbus operation.
type FunctionCode byte

// Function codes supported by the responder.
const (
	FuncCodeReadCoils             FunctionCode = 0x01
	FuncCodeReadDiscreteInputs    FunctionCode = 0x02
	FuncCodeReadHoldingRegisters  FunctionCode = 0x03
	FuncCodeReadInputRegisters    FunctionCode = 0x04
	FuncCodeWriteSingleCoil       FunctionCode = 0x05
	FuncCodeWriteSingleRegister   FunctionCode = 0x06
	FuncCodeDiagnostics           FunctionCode = 0x08
	FuncCodeWriteMultipleCoils    FunctionCode = 0x0F
	FuncCodeWriteMultipleRegister FunctionCode = 0x10

	FuncCodeReadWriteMultipleRegisters FunctionCode = 0x17
)

// Exception flag. A response function code with this bit set carries a
// one-byte exception code as its payload.
const ExceptionFlag byte = 0x80

// Exception codes.
const (
	ExceptionCodeIllegalFunction     byte = 0x01
	ExceptionCodeIllegalDataAddress  byte = 0x02
	ExceptionCodeIllegalDataValue    byte = 0x03
	ExceptionCodeServerDeviceFailure byte = 0x04
)

// Quantity limits defined by the protocol for a single request.
const (
	MaxBitQuantity       = 2000 // read coils / discrete inputs
	MaxRegisterQuantity  = 125  // read holding / input registers
	MaxWriteBitQuantity  = 1968 // write multiple coils
	MaxWriteRegQuantity  = 123  // write multiple registers
	MaxRWWriteQuantity   = 121  // write half of read/write multiple
)

func (fc FunctionCode) String() string {
	switch fc {
	case FuncCodeReadCoils:
		return "ReadCoils"
	case FuncCodeReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case FuncCodeReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncCodeReadInputRegisters:
		return "ReadInputRegisters"
	case FuncCodeWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncCodeWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncCodeDiagnostics:
		return "Diagnostics"
	case FuncCodeWriteMultipleCoils:
		return "WriteMultipleCoils"
	case FuncCodeWriteMultipleRegister:
		return "WriteMultipleRegisters"
	case FuncCodeReadWriteMultipleRegisters:
		return "ReadWriteMultipleRegisters"
	default:
		return fmt.Sprintf("FunctionCode(0x%02X)", byte(fc))
	}
}
