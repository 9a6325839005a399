package dedup

// Index maps content to the path currently kept for it. It is owned by a
// single goroutine and never shrinks.
type Index struct {
	m map[ContentKey]string
}

func NewIndex() *Index {
	return &Index{m: make(map[ContentKey]string)}
}

func (x *Index) Lookup(k ContentKey) (string, bool) {
	p, ok := x.m[k]
	return p, ok
}

func (x *Index) Put(k ContentKey, path string) {
	x.m[k] = path
}

func (x *Index) Len() int {
	return len(x.m)
}
