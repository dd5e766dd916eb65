package entity

// Free releases a value returned by the interpreter. Returned values are
// copies owned by the caller, so their buffer and package storage is
// cleared; v must not be used afterwards.
func Free(v Value) {
	FreeContents(v)
}

// FreeContents recursively clears the storage owned by v: buffer bytes and
// package elements (including nested packages). Alias, Reference and
// NameRef values are non-owning and are never followed.
func FreeContents(v Value) {
	switch val := v.(type) {
	case *Buffer:
		val.Data = nil
	case *Package:
		for i, elem := range val.Elements {
			FreeContents(elem)
			val.Elements[i] = nil
		}
		val.Elements = nil
	}
}

// Copy returns a deep copy of the data owned by v. Buffers and packages are
// duplicated; objects that cannot be copied by value (devices, methods,
// mutexes, ...), references and aliases are returned as is.
func Copy(v Value) Value {
	switch val := v.(type) {
	case *Buffer:
		return &Buffer{Data: append([]byte{}, val.Data...)}
	case *Package:
		elems := make([]Value, len(val.Elements))
		for i, elem := range val.Elements {
			elems[i] = Copy(elem)
		}
		return &Package{Elements: elems}
	case nil:
		return Uninitialized{}
	default:
		return v
	}
}
