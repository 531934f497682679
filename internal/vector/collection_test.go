package vector

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeSource struct {
	paths  map[int64]string
	chunks map[int64][]byte
	order  []int64
	err    error
}

func (f *fakeSource) LoadMetadata(ctx context.Context) (map[int64]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]string, len(f.paths))
	for k, v := range f.paths {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) ForEachChunk(ctx context.Context, fn func(int64, []byte) error) error {
	for _, id := range f.order {
		if err := fn(id, f.chunks[id]); err != nil {
			return err
		}
	}
	return nil
}

func TestReadCollection_onlyVectorsWithMetadata(t *testing.T) {
	const dims = 2
	src := &fakeSource{
		paths: map[int64]string{1: "a.md", 3: "c.md", 6: "f.md"},
		chunks: map[int64][]byte{
			// capacity 4: chunk 1 holds ids 1..4, chunk 2 holds ids 5..8
			1: EncodeChunk([][]float32{{1, 0}, {0, 1}, {1, 1}}),
			2: EncodeChunk([][]float32{{2, 0}, {0, 2}}),
		},
		order: []int64{1, 2},
	}
	c, skipped, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: dims, ChunkCapacity: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}
	ids := c.IDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 6 {
		t.Fatalf("IDs = %v, want [1 3 6]", ids)
	}
	v, _ := c.Vector(6)
	if v[0] != 0 || v[1] != 2 {
		t.Errorf("vector 6 = %v, want [0 2]", v)
	}
	if c.Records() != 3 || c.Len() != 3 {
		t.Errorf("Records=%d Len=%d", c.Records(), c.Len())
	}
}

func TestReadCollection_metadataWithoutVector(t *testing.T) {
	src := &fakeSource{
		paths:  map[int64]string{1: "a.md", 2: "b.md"},
		chunks: map[int64][]byte{1: EncodeChunk([][]float32{{1}})},
		order:  []int64{1},
	}
	c, _, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: 1})
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 || c.Records() != 2 {
		t.Errorf("Len=%d Records=%d, want 1 and 2", c.Len(), c.Records())
	}
	if _, ok := c.Vector(2); ok {
		t.Error("record 2 should have no vector")
	}
	if p, ok := c.Path(2); !ok || p != "b.md" {
		t.Errorf("Path(2) = %q, %v", p, ok)
	}
}

func TestReadCollection_corruptChunkSkipped(t *testing.T) {
	src := &fakeSource{
		paths: map[int64]string{1: "a.md", 3: "c.md"},
		chunks: map[int64][]byte{
			1: EncodeChunk([][]float32{{float32(math.NaN())}, {1}}),
			2: EncodeChunk([][]float32{{1}, {2}}),
		},
		order: []int64{1, 2},
	}
	c, skipped, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: 1, ChunkCapacity: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 1 || skipped[0].ChunkID != 1 || !errors.Is(skipped[0], ErrCorruptChunk) {
		t.Fatalf("skipped = %v", skipped)
	}
	ids := c.IDs()
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("IDs = %v, want [3]", ids)
	}
}

func TestReadCollection_unreferencedSlotNotInspected(t *testing.T) {
	src := &fakeSource{
		paths: map[int64]string{1: "a.md", 2: "b.md"},
		chunks: map[int64][]byte{
			1: EncodeChunk([][]float32{{1, 0}, {1, 0}, {float32(math.NaN()), 0}}),
		},
		order: []int64{1},
	}
	c, skipped, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestReadCollection_remainderBytes(t *testing.T) {
	blob := append(EncodeChunk([][]float32{{1, 2}}), 0xff, 0xff)
	src := &fakeSource{
		paths:  map[int64]string{1: "a.md"},
		chunks: map[int64][]byte{1: blob},
		order:  []int64{1},
	}
	t.Run("lenient ignores trailing bytes", func(t *testing.T) {
		c, skipped, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(skipped) != 0 || c.Len() != 1 {
			t.Errorf("skipped=%d len=%d, want 0 and 1", len(skipped), c.Len())
		}
	})
	t.Run("strict skips the chunk", func(t *testing.T) {
		c, skipped, err := ReadCollection(context.Background(), src, ReaderOptions{Dimensions: 2, StrictChunks: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(skipped) != 1 || c.Len() != 0 {
			t.Errorf("skipped=%d len=%d, want 1 and 0", len(skipped), c.Len())
		}
	})
}

func TestReadCollection_sourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("no such table")}
	if _, _, err := ReadCollection(context.Background(), src, ReaderOptions{}); err == nil {
		t.Error("expected error when metadata cannot be loaded")
	}
}

func TestCollection_dropsVectorsWithoutPath(t *testing.T) {
	c := newCollection(1, map[int64]string{1: "a.md"}, map[int64][]float32{1: {1}, 2: {2}})
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if _, ok := c.Vector(2); ok {
		t.Error("vector 2 has no path and should be dropped")
	}
}

func TestCollection_VectorReturnsCopy(t *testing.T) {
	c := newCollection(1, map[int64]string{1: "a.md"}, map[int64][]float32{1: {1}})
	v, _ := c.Vector(1)
	v[0] = 42
	again, _ := c.Vector(1)
	if again[0] != 1 {
		t.Error("Collection must not expose its internal vectors")
	}
}
