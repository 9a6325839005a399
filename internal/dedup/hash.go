package dedup

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Algo selects the content hash.
type Algo int

const (
	Blake3 Algo = iota
	XXHash
)

func (a Algo) String() string {
	switch a {
	case Blake3:
		return "blake3"
	case XXHash:
		return "xxhash"
	default:
		return fmt.Sprintf("algo(%d)", int(a))
	}
}

// ParseAlgo parses a hash name as accepted by --algo.
func ParseAlgo(s string) (Algo, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blake3":
		return Blake3, nil
	case "xxhash", "xxh64":
		return XXHash, nil
	}
	return 0, fmt.Errorf("unknown hash algorithm %q (want blake3 or xxhash)", s)
}

// ContentKey identifies file content. Files with equal keys are treated as
// duplicates.
type ContentKey struct {
	Hash [16]byte
	Size int64
}

// Hex returns the hash as lowercase hex.
func (k ContentKey) Hex() string {
	return hex.EncodeToString(k.Hash[:])
}

func (k ContentKey) String() string {
	return fmt.Sprintf("%s/%d", k.Hex(), k.Size)
}

var hashBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64*1024)
		return &b
	},
}

// xxhash128 combines two independently seeded 64-bit digests.
type xxhash128 struct {
	lo, hi *xxhash.Digest
}

const xxhashHiSeed = 0x9e3779b97f4a7c15

func newXXHash128() *xxhash128 {
	return &xxhash128{lo: xxhash.New(), hi: xxhash.NewWithSeed(xxhashHiSeed)}
}

func (x *xxhash128) Write(p []byte) (int, error) {
	_, _ = x.lo.Write(p)
	return x.hi.Write(p)
}

func (x *xxhash128) sum() [16]byte {
	var out [16]byte
	lo, hi := x.lo.Sum64(), x.hi.Sum64()
	for i := range 8 {
		out[i] = byte(hi >> (56 - 8*i))
		out[8+i] = byte(lo >> (56 - 8*i))
	}
	return out
}

// HashReader streams r through the selected hash.
func HashReader(r io.Reader, algo Algo) (ContentKey, error) {
	bufp := hashBufPool.Get().(*[]byte) //nolint:errcheck,forcetypeassert // pool only holds *[]byte
	defer hashBufPool.Put(bufp)

	var key ContentKey
	switch algo {
	case XXHash:
		h := newXXHash128()
		n, err := io.CopyBuffer(h, r, *bufp)
		if err != nil {
			return ContentKey{}, err
		}
		key = ContentKey{Hash: h.sum(), Size: n}
	default:
		var h hash.Hash = blake3.New()
		n, err := io.CopyBuffer(h, r, *bufp)
		if err != nil {
			return ContentKey{}, err
		}
		copy(key.Hash[:], h.Sum(nil))
		key.Size = n
	}
	return key, nil
}

// HashFile computes the content key of the file at path.
func HashFile(path string, algo Algo) (ContentKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContentKey{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	key, err := HashReader(f, algo)
	if err != nil {
		return ContentKey{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return key, nil
}
