package psdformat

import "strconv"

// join appends a label to a parent path, dot-separating components.
func join(parent, label string) string {
	if parent == "" {
		return label
	}
	return parent + "." + label
}

// indexed appends an ordinal child label ("layer_{0}", "channel_{3}", ...)
// to a parent path.
func indexed(parent, label string, index int) string {
	return join(parent, label+"_{"+strconv.Itoa(index)+"}")
}

// padTo rounds n up to the next multiple of unit: pad(n, m) = n + ((m - n%m) % m).
func padTo(n, unit int) int {
	if unit <= 0 {
		return n
	}
	rem := n % unit
	if rem == 0 {
		return n
	}
	return n + (unit - rem)
}

// nameFieldLen returns the number of name bytes to read after a
// name-length byte of value nameLength, given the padding unit in force
// (2 for image-resource records, 4 for layer records): the actual read
// length is pad(nameLength+1, unit) - 1, floored to at least 1. The +1
// accounts for the length byte itself being part of what gets padded, so
// a zero-length name still occupies pad bytes (1 for unit 2, 3 for unit 4)
// rather than zero.
func nameFieldLen(nameLength, unit int) int {
	n := padTo(nameLength+1, unit) - 1
	if n < 1 {
		return 1
	}
	return n
}
