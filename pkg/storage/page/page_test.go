package page

import (
	"testing"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name        string
		dataSize    int
		expectError bool
	}{
		{name: "Exact page size", dataSize: PageSize, expectError: false},
		{name: "Too small", dataSize: PageSize - 1, expectError: true},
		{name: "Too large", dataSize: PageSize + 1, expectError: true},
		{name: "Empty", dataSize: 0, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPage(3, make([]byte, tt.dataSize))
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p.ID() != 3 {
				t.Errorf("Expected page id 3, got %d", p.ID())
			}
			if len(p.Data()) != PageSize {
				t.Errorf("Expected %d data bytes, got %d", PageSize, len(p.Data()))
			}
		})
	}
}

func TestDirtyTracking(t *testing.T) {
	p := NewEmptyPage(0)
	if p.IsDirty() {
		t.Error("Fresh page must be clean")
	}

	p.MarkDirty(10)
	if !p.IsDirty() {
		t.Error("Expected dirty after MarkDirty")
	}
	if p.RecLSN() != 10 {
		t.Errorf("Expected recLSN 10, got %d", p.RecLSN())
	}

	// recLSN keeps the FIRST mutation's position, pageLSN the latest
	p.MarkDirty(20)
	if p.RecLSN() != 10 {
		t.Errorf("recLSN must not advance while dirty, got %d", p.RecLSN())
	}
	if p.PageLSN() != 20 {
		t.Errorf("Expected pageLSN 20 after second mutation, got %d", p.PageLSN())
	}

	p.MarkClean()
	if p.IsDirty() {
		t.Error("Expected clean after MarkClean")
	}
	p.MarkDirty(30)
	if p.RecLSN() != 30 {
		t.Errorf("Expected recLSN reset to 30 after clean cycle, got %d", p.RecLSN())
	}
	if p.PageLSN() != 30 {
		t.Errorf("Expected pageLSN reset to 30 after clean cycle, got %d", p.PageLSN())
	}
}

func TestPinCounting(t *testing.T) {
	p := NewEmptyPage(0)
	if p.PinCount() != 0 {
		t.Errorf("Expected pin count 0, got %d", p.PinCount())
	}

	p.Pin()
	p.Pin()
	if p.PinCount() != 2 {
		t.Errorf("Expected pin count 2, got %d", p.PinCount())
	}

	p.Unpin()
	p.Unpin()
	if p.PinCount() != 0 {
		t.Errorf("Expected pin count 0, got %d", p.PinCount())
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic unpinning an unpinned page")
		}
	}()
	p.Unpin()
}
