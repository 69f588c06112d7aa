//go:build tinygo && avr

package core

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the on-chip register file. Addresses are data-space addresses
// (I/O address + 0x20 for the low I/O registers).
type MMIO struct{}

// Get implements RegisterFile.
func (MMIO) Get(r Reg) uint8 {
	return volatile.LoadUint8((*uint8)(unsafe.Pointer(uintptr(r))))
}

// Set implements RegisterFile.
func (MMIO) Set(r Reg, v uint8) {
	volatile.StoreUint8((*uint8)(unsafe.Pointer(uintptr(r))), v)
}
