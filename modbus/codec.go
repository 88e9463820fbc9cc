// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"encoding/binary"
	"fmt"
)

// DecodeRequest parses a PDU payload into its typed request variant.
// A malformed payload yields an InvalidRequestTypeError; a function code
// outside the supported set yields an UnknownRequest and no error, so the
// dispatch engine decides how to reject it.
func DecodeRequest(pdu ProtocolDataUnit) (Request, error) {
	fc := FunctionCode(pdu.FunctionCode)
	data := pdu.Data

	switch fc {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs,
		FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters:
		if len(data) != 4 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("payload is %d bytes, want 4", len(data))}
		}
		start := binary.BigEndian.Uint16(data[0:2])
		quantity := binary.BigEndian.Uint16(data[2:4])
		max := MaxRegisterQuantity
		if fc == FuncCodeReadCoils || fc == FuncCodeReadDiscreteInputs {
			max = MaxBitQuantity
		}
		if quantity < 1 || int(quantity) > max {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("quantity %d outside [1, %d]", quantity, max)}
		}
		switch fc {
		case FuncCodeReadCoils:
			return ReadCoilsRequest{Start: start, Quantity: quantity}, nil
		case FuncCodeReadDiscreteInputs:
			return ReadDiscreteInputsRequest{Start: start, Quantity: quantity}, nil
		case FuncCodeReadHoldingRegisters:
			return ReadHoldingRegistersRequest{Start: start, Quantity: quantity}, nil
		default:
			return ReadInputRegistersRequest{Start: start, Quantity: quantity}, nil
		}

	case FuncCodeWriteSingleCoil, FuncCodeWriteSingleRegister:
		if len(data) != 4 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("payload is %d bytes, want 4", len(data))}
		}
		address := binary.BigEndian.Uint16(data[0:2])
		value := binary.BigEndian.Uint16(data[2:4])
		if fc == FuncCodeWriteSingleCoil {
			return WriteSingleCoilRequest{Address: address, Value: value}, nil
		}
		return WriteSingleRegisterRequest{Address: address, Value: value}, nil

	case FuncCodeDiagnostics:
		if len(data) < 2 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: "payload shorter than subfunction"}
		}
		echo := make([]byte, len(data)-2)
		copy(echo, data[2:])
		return DiagnosticsRequest{
			SubFunction: binary.BigEndian.Uint16(data[0:2]),
			Data:        echo,
		}, nil

	case FuncCodeWriteMultipleCoils:
		if len(data) < 6 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("payload is %d bytes, want at least 6", len(data))}
		}
		start := binary.BigEndian.Uint16(data[0:2])
		quantity := binary.BigEndian.Uint16(data[2:4])
		byteCount := int(data[4])
		if quantity < 1 || quantity > MaxWriteBitQuantity {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("quantity %d outside [1, %d]", quantity, MaxWriteBitQuantity)}
		}
		if byteCount != len(data[5:]) || byteCount != bitPayloadSize(int(quantity)) {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: "byte count does not match quantity"}
		}
		return WriteMultipleCoilsRequest{
			Start:  start,
			Values: unpackBits(data[5:], int(quantity)),
		}, nil

	case FuncCodeWriteMultipleRegister:
		if len(data) < 7 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("payload is %d bytes, want at least 7", len(data))}
		}
		start := binary.BigEndian.Uint16(data[0:2])
		quantity := binary.BigEndian.Uint16(data[2:4])
		byteCount := int(data[4])
		if quantity < 1 || quantity > MaxWriteRegQuantity {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("quantity %d outside [1, %d]", quantity, MaxWriteRegQuantity)}
		}
		if byteCount != len(data[5:]) || byteCount != int(quantity)*2 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: "byte count does not match quantity"}
		}
		return WriteMultipleRegistersRequest{
			Start:  start,
			Values: unpackWords(data[5:], int(quantity)),
		}, nil

	case FuncCodeReadWriteMultipleRegisters:
		if len(data) < 11 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("payload is %d bytes, want at least 11", len(data))}
		}
		readStart := binary.BigEndian.Uint16(data[0:2])
		readQuantity := binary.BigEndian.Uint16(data[2:4])
		writeStart := binary.BigEndian.Uint16(data[4:6])
		writeQuantity := binary.BigEndian.Uint16(data[6:8])
		byteCount := int(data[8])
		if readQuantity < 1 || readQuantity > MaxRegisterQuantity {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("read quantity %d outside [1, %d]", readQuantity, MaxRegisterQuantity)}
		}
		if writeQuantity < 1 || writeQuantity > MaxRWWriteQuantity {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: fmt.Sprintf("write quantity %d outside [1, %d]", writeQuantity, MaxRWWriteQuantity)}
		}
		if byteCount != len(data[9:]) || byteCount != int(writeQuantity)*2 {
			return nil, &InvalidRequestTypeError{Code: fc, Reason: "byte count does not match write quantity"}
		}
		return ReadWriteMultipleRegistersRequest{
			ReadStart:    readStart,
			ReadQuantity: readQuantity,
			WriteStart:   writeStart,
			WriteValues:  unpackWords(data[9:], int(writeQuantity)),
		}, nil

	default:
		raw := make([]byte, len(data))
		copy(raw, data)
		return UnknownRequest{Code: fc, Data: raw}, nil
	}
}

// EncodeResponse serializes a typed response back into a PDU.
func EncodeResponse(resp Response) (ProtocolDataUnit, error) {
	switch r := resp.(type) {
	case ReadCoilsResponse:
		return bitReadPDU(resp.FunctionCode(), r.Values), nil
	case ReadDiscreteInputsResponse:
		return bitReadPDU(resp.FunctionCode(), r.Values), nil
	case ReadHoldingRegistersResponse:
		return wordReadPDU(resp.FunctionCode(), r.Values), nil
	case ReadInputRegistersResponse:
		return wordReadPDU(resp.FunctionCode(), r.Values), nil
	case ReadWriteMultipleRegistersResponse:
		return wordReadPDU(resp.FunctionCode(), r.Values), nil
	case WriteSingleCoilResponse:
		return echoPDU(resp.FunctionCode(), r.Address, r.Value), nil
	case WriteSingleRegisterResponse:
		return echoPDU(resp.FunctionCode(), r.Address, r.Value), nil
	case WriteMultipleCoilsResponse:
		return echoPDU(resp.FunctionCode(), r.Start, r.Quantity), nil
	case WriteMultipleRegistersResponse:
		return echoPDU(resp.FunctionCode(), r.Start, r.Quantity), nil
	case DiagnosticsResponse:
		data := make([]byte, 2+len(r.Data))
		binary.BigEndian.PutUint16(data[0:2], r.SubFunction)
		copy(data[2:], r.Data)
		return ProtocolDataUnit{FunctionCode: byte(resp.FunctionCode()), Data: data}, nil
	default:
		return ProtocolDataUnit{}, fmt.Errorf("modbus: cannot encode response of type %T", resp)
	}
}

func bitReadPDU(fc FunctionCode, values []bool) ProtocolDataUnit {
	packed := packBits(values)
	data := make([]byte, 1+len(packed))
	data[0] = byte(len(packed))
	copy(data[1:], packed)
	return ProtocolDataUnit{FunctionCode: byte(fc), Data: data}
}

func wordReadPDU(fc FunctionCode, values []uint16) ProtocolDataUnit {
	data := make([]byte, 1+2*len(values))
	data[0] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[1+i*2:], v)
	}
	return ProtocolDataUnit{FunctionCode: byte(fc), Data: data}
}

func echoPDU(fc FunctionCode, first, second uint16) ProtocolDataUnit {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], first)
	binary.BigEndian.PutUint16(data[2:4], second)
	return ProtocolDataUnit{FunctionCode: byte(fc), Data: data}
}

func bitPayloadSize(quantity int) int {
	return (quantity + 7) / 8
}

// packBits packs booleans into bytes, LSB first, trailing bits zero.
func packBits(values []bool) []byte {
	packed := make([]byte, bitPayloadSize(len(values)))
	for i, v := range values {
		if v {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return packed
}

func unpackBits(data []byte, quantity int) []bool {
	values := make([]bool, quantity)
	for i := range values {
		values[i] = (data[i/8]>>uint(i%8))&1 == 1
	}
	return values
}

func unpackWords(data []byte, quantity int) []uint16 {
	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return values
}
