// Package uniforms packs float uniform data into fixed-size slots that are
// uploaded to a GPU buffer as one block.
package uniforms

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrSlotOutOfRange = errors.New("uniform slot out of range")
	ErrSlotLength     = errors.New("uniform slot length mismatch")
)

// Block is a contiguous run of float32 slots. Slot i starts where slot i-1 ends.
type Block struct {
	mu      sync.RWMutex
	offsets []int
	data    []float32
	dirty   bool
}

// NewBlock creates a zeroed block with one slot per size.
func NewBlock(sizes ...int) *Block {
	offsets := make([]int, 0, len(sizes))
	length := 0
	for _, size := range sizes {
		offsets = append(offsets, length)
		length += size
	}
	return &Block{
		offsets: offsets,
		data:    make([]float32, length),
		dirty:   true,
	}
}

// Update replaces the contents of slot index. data must match the slot size.
// The block only becomes dirty when a value actually changes.
func (b *Block) Update(index int, data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset, length, err := b.offsetLength(index)
	if err != nil {
		return err
	}
	if len(data) != length {
		return fmt.Errorf("%w: slot %d has length %d but got %d", ErrSlotLength, index, length, len(data))
	}
	slot := b.data[offset : offset+length]
	for i, v := range data {
		if slot[i] != v {
			slot[i] = v
			b.dirty = true
		}
	}
	return nil
}

// Set writes several consecutive slots starting at slot 0 from one flat slice.
func (b *Block) Set(data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data) != len(b.data) {
		return fmt.Errorf("%w: block has length %d but got %d", ErrSlotLength, len(b.data), len(data))
	}
	copy(b.data, data)
	b.dirty = true
	return nil
}

// Get returns a copy of slot index.
func (b *Block) Get(index int) ([]float32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset, length, err := b.offsetLength(index)
	if err != nil {
		return nil, err
	}
	out := make([]float32, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// Len is the block length in float32s.
func (b *Block) Len() int {
	return len(b.data)
}

// Size is the block size in bytes.
func (b *Block) Size() uint64 {
	return uint64(len(b.data) * 4)
}

// Bytes returns the block little-endian encoded, ready for a buffer write.
func (b *Block) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]byte, len(b.data)*4)
	for i, f := range b.data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Dirty reports whether the block changed since the last ClearDirty.
func (b *Block) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

func (b *Block) ClearDirty() {
	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()
}

func (b *Block) offsetLength(index int) (int, int, error) {
	if index < 0 || index >= len(b.offsets) {
		return 0, 0, fmt.Errorf("%w: index %d outside 0-%d", ErrSlotOutOfRange, index, len(b.offsets)-1)
	}
	offset := b.offsets[index]
	end := len(b.data)
	if index+1 < len(b.offsets) {
		end = b.offsets[index+1]
	}
	return offset, end - offset, nil
}
