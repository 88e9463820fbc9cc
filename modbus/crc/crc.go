// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package crc computes the CRC-16 (Modbus variant) checksum used by RTU
// framing: polynomial 0xA001 (reflected 0x8005), initial value 0xFFFF.
package crc

type CRC struct {
	value uint16
}

// Reset initializes the checksum. Must be called before the first PushBytes.
func (crc *CRC) Reset() *CRC {
	crc.value = 0xFFFF
	return crc
}

// PushBytes folds bs into the running checksum.
func (crc *CRC) PushBytes(bs []byte) *CRC {
	for _, b := range bs {
		crc.value ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc.value&1 != 0 {
				crc.value = crc.value>>1 ^ 0xA001
			} else {
				crc.value >>= 1
			}
		}
	}
	return crc
}

// Value returns the checksum. The low byte is transmitted first on the wire.
func (crc *CRC) Value() uint16 {
	return crc.value
}
