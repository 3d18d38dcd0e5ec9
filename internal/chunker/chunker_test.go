package chunker

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.chunkSize)
		}
		if s.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, s.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		s := New(WithChunkSize(500))
		if s.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", s.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		s := New(WithOverlap(100))
		if s.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", s.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.overlap >= s.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", s.chunkSize)
		}
		if s.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", s.overlap)
		}
	})
}

func TestSplit_EmptyContent(t *testing.T) {
	s := New()

	chunks := s.Split("")
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestSplit_SmallContent(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))

	chunks := s.Split("short content")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short content" {
		t.Errorf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].ID == "" {
		t.Error("expected chunk ID to be assigned")
	}
}

func TestSplit_LongContent(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))
	content := strings.Repeat("a", 250)

	chunks := s.Split(content)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	// Ordinals are sequential
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if len(chunk.Text) > 100 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(chunk.Text))
		}
	}

	// Consecutive chunks overlap by the configured amount
	first, second := chunks[0].Text, chunks[1].Text
	if !strings.HasPrefix(second, first[len(first)-20:]) {
		t.Error("expected 20-character overlap between consecutive chunks")
	}
}

func TestSplit_UniqueIDs(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(10))
	chunks := s.Split(strings.Repeat("b", 300))

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if seen[chunk.ID] {
			t.Fatalf("duplicate chunk ID %s", chunk.ID)
		}
		seen[chunk.ID] = true
	}
}
