package page

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

func openTestFile(t *testing.T) *PageFile {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), "test.tbl"))
	pf, err := OpenPageFile(path)
	if err != nil {
		t.Fatalf("OpenPageFile failed: %v", err)
	}
	t.Cleanup(func() { pf.Close() })
	return pf
}

func TestEmptyFileHasNoPages(t *testing.T) {
	pf := openTestFile(t)

	n, err := pf.NumPages()
	if err != nil {
		t.Fatalf("NumPages failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 pages, got %d", n)
	}
}

func TestAllocateExtendsFile(t *testing.T) {
	pf := openTestFile(t)

	for want := primitives.PageNumber(0); want < 3; want++ {
		got, err := pf.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected page number %d, got %d", want, got)
		}
	}

	n, err := pf.NumPages()
	if err != nil {
		t.Fatalf("NumPages failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pages, got %d", n)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	pf := openTestFile(t)

	pageNo, err := pf.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}

	p := NewEmptyPage(pageNo)
	copy(p.Data(), []byte("page payload"))
	if err := pf.WritePage(p); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := pf.ReadPage(pageNo)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got.Data(), p.Data()) {
		t.Error("Read bytes differ from written bytes")
	}
}

func TestReadPastEnd(t *testing.T) {
	pf := openTestFile(t)

	if _, err := pf.ReadPage(0); err == nil {
		t.Error("Expected error reading an unallocated page")
	}
}

func TestFreshPageIsZeroFilled(t *testing.T) {
	pf := openTestFile(t)

	pageNo, err := pf.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	p, err := pf.ReadPage(pageNo)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	for i, b := range p.Data() {
		if b != 0 {
			t.Fatalf("Expected zero byte at offset %d, got %d", i, b)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := primitives.Filepath(filepath.Join(t.TempDir(), "close.tbl"))
	pf, err := OpenPageFile(path)
	if err != nil {
		t.Fatalf("OpenPageFile failed: %v", err)
	}

	if err := pf.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
