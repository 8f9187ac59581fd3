package ecs

// Column is a homogeneous, type-erased growable array holding one
// component type's values for every row of a table. Rows are dense;
// removal is swap-remove, mirroring the table's entity set so row
// numbers stay aligned across all columns.
type Column interface {
	// Push appends a value (T or *T, copied either way) and returns its row.
	Push(value any) int
	// Row returns a pointer to the value at row as *T, or nil if out of range.
	Row(row int) any
	// Set overwrites the value at row.
	Set(row int, value any)
	// SwapRemove moves the last value into row and shrinks by one.
	SwapRemove(row int)
	Len() int
}

type column[T any] struct {
	data []T
}

func (c *column[T]) Push(value any) int {
	c.data = append(c.data, c.concrete(value))
	return len(c.data) - 1
}

func (c *column[T]) Row(row int) any {
	if row < 0 || row >= len(c.data) {
		return nil
	}
	return &c.data[row]
}

func (c *column[T]) Set(row int, value any) {
	c.data[row] = c.concrete(value)
}

func (c *column[T]) SwapRemove(row int) {
	last := len(c.data) - 1
	if row < 0 || row > last {
		return
	}
	c.data[row] = c.data[last]
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *column[T]) Len() int {
	return len(c.data)
}

func (c *column[T]) concrete(value any) T {
	switch v := value.(type) {
	case T:
		return v
	case *T:
		return *v
	}
	panic("ecs: value does not match column component type")
}
