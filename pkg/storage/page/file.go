package page

import (
	"fmt"
	"os"
	"sync"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/primitives"
)

// PageFile handles page-aligned I/O against one on-disk file: a table
// data file, an index file, or any other page-organized store. Its
// length is always an exact multiple of PageSize and page ids 0..N-1
// form a dense allocation sequence.
type PageFile struct {
	file     *os.File
	filePath primitives.Filepath
	mutex    sync.RWMutex
}

// OpenPageFile opens (creating if absent) the page file at filePath.
func OpenPageFile(filePath primitives.Filepath) (*PageFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, gerr.Io(err, "failed to open %s", filePath)
	}

	return &PageFile{file: file, filePath: filePath}, nil
}

// FilePath returns the path this file was opened with.
func (pf *PageFile) FilePath() primitives.Filepath {
	return pf.filePath
}

// NumPages returns the number of allocated pages.
func (pf *PageFile) NumPages() (primitives.PageNumber, error) {
	pf.mutex.RLock()
	defer pf.mutex.RUnlock()

	if pf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := pf.file.Stat()
	if err != nil {
		return 0, gerr.Io(err, "failed to stat %s", pf.filePath)
	}
	return primitives.PageNumber(info.Size() / PageSize), nil
}

// ReadPage reads exactly PageSize bytes for the given page number.
// Reading past the file's allocated extent is an I/O error.
func (pf *PageFile) ReadPage(pageNo primitives.PageNumber) (*Page, error) {
	pf.mutex.RLock()
	defer pf.mutex.RUnlock()

	if pf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	data := make([]byte, PageSize)
	if _, err := pf.file.ReadAt(data, int64(pageNo)*PageSize); err != nil {
		return nil, gerr.Io(err, "failed to read page %d of %s", pageNo, pf.filePath)
	}
	return NewPage(pageNo, data)
}

// WritePage writes a page back at its page-aligned offset and syncs.
func (pf *PageFile) WritePage(p *Page) error {
	pf.mutex.Lock()
	defer pf.mutex.Unlock()

	if pf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if _, err := pf.file.WriteAt(p.Data(), int64(p.ID())*PageSize); err != nil {
		return gerr.Io(err, "failed to write page %d of %s", p.ID(), pf.filePath)
	}
	if err := pf.file.Sync(); err != nil {
		return gerr.Io(err, "failed to sync %s", pf.filePath)
	}
	return nil
}

// AllocatePage extends the file by one zero-filled page and returns
// the new page's number. The zero-fill reserves the space so the file
// length stays an exact multiple of PageSize.
func (pf *PageFile) AllocatePage() (primitives.PageNumber, error) {
	pf.mutex.Lock()
	defer pf.mutex.Unlock()

	if pf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := pf.file.Stat()
	if err != nil {
		return 0, gerr.Io(err, "failed to stat %s", pf.filePath)
	}

	pageNo := primitives.PageNumber(info.Size() / PageSize)
	zero := make([]byte, PageSize)
	if _, err := pf.file.WriteAt(zero, int64(pageNo)*PageSize); err != nil {
		return 0, gerr.Io(err, "failed to reserve page %d of %s", pageNo, pf.filePath)
	}
	if err := pf.file.Sync(); err != nil {
		return 0, gerr.Io(err, "failed to sync %s after allocation", pf.filePath)
	}
	return pageNo, nil
}

// Close closes the underlying file handle. Safe to call twice.
func (pf *PageFile) Close() error {
	pf.mutex.Lock()
	defer pf.mutex.Unlock()

	if pf.file != nil {
		err := pf.file.Close()
		pf.file = nil
		return err
	}
	return nil
}
