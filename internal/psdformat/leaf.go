package psdformat

// Leaf is a terminal block in the parse tree: a labeled, contiguous byte
// range whose contents are a semantic unit that the reader does not
// descend into further.
type Leaf struct {
	Path   string
	Offset int64
	Length int64
}

// End returns the offset one past the leaf's last byte.
func (l Leaf) End() int64 { return l.Offset + l.Length }

// Container is a non-terminal block: a contiguous byte range that is fully
// partitioned by its (not necessarily yielded) children. The decomposer
// uses containers to chunk at coarser-than-leaf granularity.
type Container struct {
	Path   string
	Offset int64
	Length int64
}

// End returns the offset one past the container's last byte.
func (c Container) End() int64 { return c.Offset + c.Length }
