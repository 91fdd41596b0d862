package fsops

import (
	"os"
	"path/filepath"
	"sync"
)

// FaultFS wraps an FS and fails selected operations, for testing partial
// failure paths.
type FaultFS struct {
	FS

	mu          sync.Mutex
	renameFails map[string]error // base name of the source -> error
	writeFails  map[string]error // base name of the target -> error
	renames     []string
}

// NewFaultFS creates a FaultFS around inner.
func NewFaultFS(inner FS) *FaultFS {
	return &FaultFS{
		FS:          inner,
		renameFails: make(map[string]error),
		writeFails:  make(map[string]error),
	}
}

// FailRename makes every Rename whose source base name is name return err.
// A nil err clears the fault.
func (f *FaultFS) FailRename(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setFault(f.renameFails, name, err)
}

// FailWrite makes every AtomicWrite whose target base name is name return err.
// A nil err clears the fault.
func (f *FaultFS) FailWrite(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setFault(f.writeFails, name, err)
}

func setFault(faults map[string]error, name string, err error) {
	if err == nil {
		delete(faults, name)
		return
	}
	faults[name] = err
}

// Renames returns the source paths of all successful renames, in order.
func (f *FaultFS) Renames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.renames))
	copy(out, f.renames)
	return out
}

// Rename fails if a fault is registered for the source name.
func (f *FaultFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	err, ok := f.renameFails[filepath.Base(oldpath)]
	f.mu.Unlock()
	if ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}

	if err := f.FS.Rename(oldpath, newpath); err != nil {
		return err
	}

	f.mu.Lock()
	f.renames = append(f.renames, oldpath)
	f.mu.Unlock()
	return nil
}

// AtomicWrite fails if a fault is registered for the target name.
func (f *FaultFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	err, ok := f.writeFails[filepath.Base(path)]
	f.mu.Unlock()
	if ok {
		return &os.PathError{Op: "write", Path: path, Err: err}
	}
	return f.FS.AtomicWrite(path, data, perm)
}
