// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// Request is one decoded protocol operation. The set of implementations is
// closed: one variant per supported function code, plus UnknownRequest for
// codes outside the set so the dispatch engine owns the rejection.
type Request interface {
	fmt.Stringer
	FunctionCode() FunctionCode

	isRequest()
}

// ReadCoilsRequest reads Quantity coils starting at Start.
type ReadCoilsRequest struct {
	Start    uint16
	Quantity uint16
}

// ReadDiscreteInputsRequest reads Quantity discrete inputs starting at Start.
type ReadDiscreteInputsRequest struct {
	Start    uint16
	Quantity uint16
}

// ReadHoldingRegistersRequest reads Quantity holding registers starting at Start.
type ReadHoldingRegistersRequest struct {
	Start    uint16
	Quantity uint16
}

// ReadInputRegistersRequest reads Quantity input registers starting at Start.
type ReadInputRegistersRequest struct {
	Start    uint16
	Quantity uint16
}

// WriteSingleCoilRequest writes one coil. Value 0xFF00 switches the coil ON;
// any other value switches it OFF.
type WriteSingleCoilRequest struct {
	Address uint16
	Value   uint16
}

// WriteSingleRegisterRequest writes one holding register.
type WriteSingleRegisterRequest struct {
	Address uint16
	Value   uint16
}

// DiagnosticsRequest is echoed back unchanged.
type DiagnosticsRequest struct {
	SubFunction uint16
	Data        []byte
}

// WriteMultipleCoilsRequest writes len(Values) coils starting at Start.
type WriteMultipleCoilsRequest struct {
	Start  uint16
	Values []bool
}

// WriteMultipleRegistersRequest writes len(Values) holding registers
// starting at Start.
type WriteMultipleRegistersRequest struct {
	Start  uint16
	Values []uint16
}

// ReadWriteMultipleRegistersRequest reads ReadQuantity holding registers at
// ReadStart and writes WriteValues at WriteStart, read first.
type ReadWriteMultipleRegistersRequest struct {
	ReadStart    uint16
	ReadQuantity uint16
	WriteStart   uint16
	WriteValues  []uint16
}

// UnknownRequest carries a function code outside the supported set.
type UnknownRequest struct {
	Code FunctionCode
	Data []byte
}

func (ReadCoilsRequest) FunctionCode() FunctionCode          { return FuncCodeReadCoils }
func (ReadDiscreteInputsRequest) FunctionCode() FunctionCode { return FuncCodeReadDiscreteInputs }
func (ReadHoldingRegistersRequest) FunctionCode() FunctionCode {
	return FuncCodeReadHoldingRegisters
}
func (ReadInputRegistersRequest) FunctionCode() FunctionCode  { return FuncCodeReadInputRegisters }
func (WriteSingleCoilRequest) FunctionCode() FunctionCode     { return FuncCodeWriteSingleCoil }
func (WriteSingleRegisterRequest) FunctionCode() FunctionCode { return FuncCodeWriteSingleRegister }
func (DiagnosticsRequest) FunctionCode() FunctionCode         { return FuncCodeDiagnostics }
func (WriteMultipleCoilsRequest) FunctionCode() FunctionCode  { return FuncCodeWriteMultipleCoils }
func (WriteMultipleRegistersRequest) FunctionCode() FunctionCode {
	return FuncCodeWriteMultipleRegister
}
func (ReadWriteMultipleRegistersRequest) FunctionCode() FunctionCode {
	return FuncCodeReadWriteMultipleRegisters
}
func (r UnknownRequest) FunctionCode() FunctionCode { return r.Code }

func (r ReadCoilsRequest) String() string {
	return fmt.Sprintf("ReadCoils(start=%d, quantity=%d)", r.Start, r.Quantity)
}
func (r ReadDiscreteInputsRequest) String() string {
	return fmt.Sprintf("ReadDiscreteInputs(start=%d, quantity=%d)", r.Start, r.Quantity)
}
func (r ReadHoldingRegistersRequest) String() string {
	return fmt.Sprintf("ReadHoldingRegisters(start=%d, quantity=%d)", r.Start, r.Quantity)
}
func (r ReadInputRegistersRequest) String() string {
	return fmt.Sprintf("ReadInputRegisters(start=%d, quantity=%d)", r.Start, r.Quantity)
}
func (r WriteSingleCoilRequest) String() string {
	return fmt.Sprintf("WriteSingleCoil(address=%d, value=0x%04X)", r.Address, r.Value)
}
func (r WriteSingleRegisterRequest) String() string {
	return fmt.Sprintf("WriteSingleRegister(address=%d, value=%d)", r.Address, r.Value)
}
func (r DiagnosticsRequest) String() string {
	return fmt.Sprintf("Diagnostics(subfunction=0x%04X, %d bytes)", r.SubFunction, len(r.Data))
}
func (r WriteMultipleCoilsRequest) String() string {
	return fmt.Sprintf("WriteMultipleCoils(start=%d, quantity=%d)", r.Start, len(r.Values))
}
func (r WriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf("WriteMultipleRegisters(start=%d, quantity=%d)", r.Start, len(r.Values))
}
func (r ReadWriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf("ReadWriteMultipleRegisters(read=[%d,+%d), write=[%d,+%d))",
		r.ReadStart, r.ReadQuantity, r.WriteStart, len(r.WriteValues))
}
func (r UnknownRequest) String() string {
	return fmt.Sprintf("Unknown(code=0x%02X, %d bytes)", byte(r.Code), len(r.Data))
}

func (ReadCoilsRequest) isRequest()                  {}
func (ReadDiscreteInputsRequest) isRequest()         {}
func (ReadHoldingRegistersRequest) isRequest()       {}
func (ReadInputRegistersRequest) isRequest()         {}
func (WriteSingleCoilRequest) isRequest()            {}
func (WriteSingleRegisterRequest) isRequest()        {}
func (DiagnosticsRequest) isRequest()                {}
func (WriteMultipleCoilsRequest) isRequest()         {}
func (WriteMultipleRegistersRequest) isRequest()     {}
func (ReadWriteMultipleRegistersRequest) isRequest() {}
func (UnknownRequest) isRequest()                    {}
