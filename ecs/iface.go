package ecs

import (
	"reflect"
	"unsafe"
)

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// typeKey derives a process-stable 32-bit identifier from a type's
// runtime descriptor pointer using FNV-1a. Identical types always hash
// to the same key within one process run; collisions between distinct
// types are a documented risk, not defended against.
func typeKey(t reflect.Type) uint32 {
	ptr := uintptr((*iface)(unsafe.Pointer(&t)).data)

	var h uint32 = 2166136261     // FNV-1a 32-bit offset basis
	const prime uint32 = 16777619 // FNV-1a 32-bit prime

	for i := uintptr(0); i < unsafe.Sizeof(ptr); i++ {
		h ^= uint32(ptr >> (8 * i) & 0xFF)
		h *= prime
	}
	return h
}
