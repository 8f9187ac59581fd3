package ecs

import (
	"reflect"
	"slices"
)

type accessKind uint8

const (
	accessComponent accessKind = iota
	accessResource
)

// AccessKey names one resource or component type in a system's declared
// access set.
type AccessKey struct {
	kind accessKind
	key  uint32
}

// ComponentAccess builds the access key for component type T.
func ComponentAccess[T any]() AccessKey {
	return AccessKey{kind: accessComponent, key: typeKey(reflect.TypeFor[T]())}
}

// ResourceAccess builds the access key for resource type T.
func ResourceAccess[T any]() AccessKey {
	return AccessKey{kind: accessResource, key: typeKey(reflect.TypeFor[T]())}
}

// Access is a system's up-front declaration of what it reads and
// writes. The scheduler never lets two systems whose sets conflict (a
// write intersecting any other access) share a wave; that declaration,
// not runtime locking, is what makes handing out shared mutable state
// sound.
type Access struct {
	Reads  []AccessKey
	Writes []AccessKey
}

// Reading appends read keys.
func (a Access) Reading(keys ...AccessKey) Access {
	a.Reads = append(slices.Clone(a.Reads), keys...)
	return a
}

// Writing appends write keys.
func (a Access) Writing(keys ...AccessKey) Access {
	a.Writes = append(slices.Clone(a.Writes), keys...)
	return a
}

func (a Access) merge(b Access) Access {
	out := Access{
		Reads:  slices.Clone(a.Reads),
		Writes: slices.Clone(a.Writes),
	}
	for _, k := range b.Reads {
		if !slices.Contains(out.Reads, k) {
			out.Reads = append(out.Reads, k)
		}
	}
	for _, k := range b.Writes {
		if !slices.Contains(out.Writes, k) {
			out.Writes = append(out.Writes, k)
		}
	}
	return out
}

// conflicts reports whether running a and b concurrently could alias a
// write: any write in one intersecting any read or write in the other.
func (a Access) conflicts(b Access) bool {
	for _, w := range a.Writes {
		if slices.Contains(b.Writes, w) || slices.Contains(b.Reads, w) {
			return true
		}
	}
	for _, w := range b.Writes {
		if slices.Contains(a.Reads, w) {
			return true
		}
	}
	return false
}
