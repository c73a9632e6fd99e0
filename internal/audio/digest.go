package audio

import (
	"encoding/hex"
	"hash"

	"lukechampine.com/blake3"
)

// Digester hashes audio content as it is copied
type Digester struct {
	h hash.Hash
	n int64
}

// NewDigester creates a BLAKE3-256 digester
func NewDigester() *Digester {
	return &Digester{h: blake3.New(32, nil)}
}

// Write implements io.Writer
func (d *Digester) Write(p []byte) (int, error) {
	n, err := d.h.Write(p)
	d.n += int64(n)
	return n, err
}

// Size is the number of bytes hashed so far
func (d *Digester) Size() int64 {
	return d.n
}

// Sum returns the hex digest
func (d *Digester) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
