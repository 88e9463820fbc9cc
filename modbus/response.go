// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// Response mirrors a request's function code with the payload appropriate
// to it. Write responses echo the validated request; they never re-read
// the memory region.
type Response interface {
	FunctionCode() FunctionCode

	isResponse()
}

// ReadCoilsResponse carries the coil values read.
type ReadCoilsResponse struct {
	Values []bool
}

// ReadDiscreteInputsResponse carries the discrete input values read.
type ReadDiscreteInputsResponse struct {
	Values []bool
}

// ReadHoldingRegistersResponse carries the holding register values read.
type ReadHoldingRegistersResponse struct {
	Values []uint16
}

// ReadInputRegistersResponse carries the input register values read.
type ReadInputRegistersResponse struct {
	Values []uint16
}

// WriteSingleCoilResponse echoes the written address and value.
type WriteSingleCoilResponse struct {
	Address uint16
	Value   uint16
}

// WriteSingleRegisterResponse echoes the written address and value.
type WriteSingleRegisterResponse struct {
	Address uint16
	Value   uint16
}

// DiagnosticsResponse echoes the diagnostics request.
type DiagnosticsResponse struct {
	SubFunction uint16
	Data        []byte
}

// WriteMultipleCoilsResponse echoes the start address and the number of
// coils written.
type WriteMultipleCoilsResponse struct {
	Start    uint16
	Quantity uint16
}

// WriteMultipleRegistersResponse echoes the start address and the number
// of registers written.
type WriteMultipleRegistersResponse struct {
	Start    uint16
	Quantity uint16
}

// ReadWriteMultipleRegistersResponse carries the read half's result only.
type ReadWriteMultipleRegistersResponse struct {
	Values []uint16
}

func (ReadCoilsResponse) FunctionCode() FunctionCode          { return FuncCodeReadCoils }
func (ReadDiscreteInputsResponse) FunctionCode() FunctionCode { return FuncCodeReadDiscreteInputs }
func (ReadHoldingRegistersResponse) FunctionCode() FunctionCode {
	return FuncCodeReadHoldingRegisters
}
func (ReadInputRegistersResponse) FunctionCode() FunctionCode  { return FuncCodeReadInputRegisters }
func (WriteSingleCoilResponse) FunctionCode() FunctionCode     { return FuncCodeWriteSingleCoil }
func (WriteSingleRegisterResponse) FunctionCode() FunctionCode { return FuncCodeWriteSingleRegister }
func (DiagnosticsResponse) FunctionCode() FunctionCode         { return FuncCodeDiagnostics }
func (WriteMultipleCoilsResponse) FunctionCode() FunctionCode  { return FuncCodeWriteMultipleCoils }
func (WriteMultipleRegistersResponse) FunctionCode() FunctionCode {
	return FuncCodeWriteMultipleRegister
}
func (ReadWriteMultipleRegistersResponse) FunctionCode() FunctionCode {
	return FuncCodeReadWriteMultipleRegisters
}

func (ReadCoilsResponse) isResponse()                  {}
func (ReadDiscreteInputsResponse) isResponse()         {}
func (ReadHoldingRegistersResponse) isResponse()       {}
func (ReadInputRegistersResponse) isResponse()         {}
func (WriteSingleCoilResponse) isResponse()            {}
func (WriteSingleRegisterResponse) isResponse()        {}
func (DiagnosticsResponse) isResponse()                {}
func (WriteMultipleCoilsResponse) isResponse()         {}
func (WriteMultipleRegistersResponse) isResponse()     {}
func (ReadWriteMultipleRegistersResponse) isResponse() {}
