package testutils

import (
	"io/fs"
	"sync"
	"testing/fstest"
	"time"
)

// ConcurrentMapFS is a fstest.MapFS that can be modified while it is read from other goroutines.
type ConcurrentMapFS struct {
	lock  sync.RWMutex
	mapFS fstest.MapFS
}

// NewConcurrentMapFS wraps mapFS, which must not be modified directly afterwards.
func NewConcurrentMapFS(mapFS fstest.MapFS) *ConcurrentMapFS {
	return &ConcurrentMapFS{mapFS: mapFS}
}

// Open implements fs.FS.
func (cmfs *ConcurrentMapFS) Open(name string) (fs.File, error) {
	cmfs.lock.RLock()
	defer cmfs.lock.RUnlock()

	return cmfs.mapFS.Open(name)
}

// ReadDir implements fs.ReadDirFS.
func (cmfs *ConcurrentMapFS) ReadDir(name string) ([]fs.DirEntry, error) {
	cmfs.lock.RLock()
	defer cmfs.lock.RUnlock()

	return cmfs.mapFS.ReadDir(name)
}

// WriteFile stores data at path with the given modification time.
func (cmfs *ConcurrentMapFS) WriteFile(path string, data []byte, modTime time.Time) {
	cmfs.lock.Lock()
	cmfs.mapFS[path] = &fstest.MapFile{Data: data, ModTime: modTime, Mode: 0o644}
	cmfs.lock.Unlock()
}

// Touch updates the modification time of path, it does nothing if path does not exist.
func (cmfs *ConcurrentMapFS) Touch(path string, modTime time.Time) {
	cmfs.lock.Lock()
	defer cmfs.lock.Unlock()

	f, ok := cmfs.mapFS[path]
	if !ok {
		return
	}
	touched := *f
	touched.ModTime = modTime
	cmfs.mapFS[path] = &touched
}

func (cmfs *ConcurrentMapFS) Delete(path string) {
	cmfs.lock.Lock()
	delete(cmfs.mapFS, path)
	cmfs.lock.Unlock()
}

var (
	_ fs.FS        = &ConcurrentMapFS{}
	_ fs.ReadDirFS = &ConcurrentMapFS{}
)
