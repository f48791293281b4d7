package uniforms

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestBlockUpdateGet(t *testing.T) {
	b := NewBlock(2, 3, 1)
	if b.Len() != 6 || b.Size() != 24 {
		t.Fatalf("Len=%d Size=%d, want 6 and 24", b.Len(), b.Size())
	}
	if err := b.Update(1, []float32{1, 2, 3}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := b.Update(2, []float32{9}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := b.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Get(1) = %v", got)
	}
	last, _ := b.Get(2)
	if len(last) != 1 || last[0] != 9 {
		t.Errorf("Get(2) = %v", last)
	}
	first, _ := b.Get(0)
	if first[0] != 0 || first[1] != 0 {
		t.Errorf("Get(0) = %v, want zeros", first)
	}
}

func TestBlockErrors(t *testing.T) {
	b := NewBlock(4, 4)
	tests := []struct {
		name  string
		index int
		data  []float32
		want  error
	}{
		{"negative index", -1, make([]float32, 4), ErrSlotOutOfRange},
		{"index past end", 2, make([]float32, 4), ErrSlotOutOfRange},
		{"short data", 0, make([]float32, 3), ErrSlotLength},
		{"long data", 1, make([]float32, 5), ErrSlotLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Update(tt.index, tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := b.Get(5); !errors.Is(err, ErrSlotOutOfRange) {
		t.Errorf("Get(5) error = %v", err)
	}
	if err := b.Set(make([]float32, 7)); !errors.Is(err, ErrSlotLength) {
		t.Errorf("Set() error = %v", err)
	}
}

func TestBlockBytesAndDirty(t *testing.T) {
	b := NewBlock(2)
	if !b.Dirty() {
		t.Error("new block should be dirty")
	}
	b.ClearDirty()
	if b.Dirty() {
		t.Error("block still dirty after ClearDirty")
	}
	if err := b.Set([]float32{1.5, -2}); err != nil {
		t.Fatal(err)
	}
	if !b.Dirty() {
		t.Error("Set() did not mark the block dirty")
	}

	raw := b.Bytes()
	if len(raw) != 8 {
		t.Fatalf("len(Bytes()) = %d", len(raw))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[0:])); got != 1.5 {
		t.Errorf("first float = %v", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])); got != -2 {
		t.Errorf("second float = %v", got)
	}
}

func TestUpdateUnchangedKeepsClean(t *testing.T) {
	b := NewBlock(2, 1)
	if err := b.Update(0, []float32{3, 4}); err != nil {
		t.Fatal(err)
	}
	b.ClearDirty()

	if err := b.Update(0, []float32{3, 4}); err != nil {
		t.Fatal(err)
	}
	if b.Dirty() {
		t.Error("identical Update() marked the block dirty")
	}

	if err := b.Update(1, []float32{9}); err != nil {
		t.Fatal(err)
	}
	if !b.Dirty() {
		t.Error("changed Update() did not mark the block dirty")
	}
}
