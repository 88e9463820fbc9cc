// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package persist

import (
	"unsafe"

	"github.com/ffutop/modbus-device/internal/store"
)

// layout describes how the four regions are packed into one flat file:
// coil bytes, then discrete input bytes, then holding registers, then
// input registers, each region at its natural width.
type layout struct {
	sizes store.Sizes

	offsetCoils    int
	offsetDiscrete int
	offsetHolding  int
	offsetInput    int
	total          int
}

func layoutFor(sizes store.Sizes) layout {
	l := layout{sizes: sizes}
	l.offsetCoils = 0
	l.offsetDiscrete = l.offsetCoils + sizes.Coils
	l.offsetHolding = l.offsetDiscrete + sizes.DiscreteInputs
	l.offsetInput = l.offsetHolding + sizes.HoldingRegisters*2
	l.total = l.offsetInput + sizes.InputRegisters*2
	return l
}

// mapBytesToStore constructs a Store whose regions alias the provided data
// slice. Word regions are cast with unsafe pointers, so multi-byte values
// take the host's endianness: zero-copy, not portable across architectures
// with different byte order.
func (l layout) mapBytesToStore(data []byte) *store.Store {
	s := &store.Store{
		Coils:          data[l.offsetCoils : l.offsetCoils+l.sizes.Coils],
		DiscreteInputs: data[l.offsetDiscrete : l.offsetDiscrete+l.sizes.DiscreteInputs],
	}

	if l.sizes.HoldingRegisters > 0 {
		holdingBytes := data[l.offsetHolding : l.offsetHolding+l.sizes.HoldingRegisters*2]
		s.HoldingRegisters = unsafe.Slice((*uint16)(unsafe.Pointer(&holdingBytes[0])), l.sizes.HoldingRegisters)
	}
	if l.sizes.InputRegisters > 0 {
		inputBytes := data[l.offsetInput : l.offsetInput+l.sizes.InputRegisters*2]
		s.InputRegisters = unsafe.Slice((*uint16)(unsafe.Pointer(&inputBytes[0])), l.sizes.InputRegisters)
	}

	return s
}
