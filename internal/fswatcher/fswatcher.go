// Package fswatcher polls file systems for changes.
package fswatcher

import (
	"context"
	"hash/fnv"
	"io"
	"io/fs"
	"path"
	"sort"
	"time"
)

// Root is a named file system to watch.
// Changed paths are reported prefixed with the name.
type Root struct {
	Name string
	FS   fs.FS
}

type fileInfo struct {
	modTime time.Time
	size    int64
	mode    fs.FileMode
	sum     uint64
}

func (fi fileInfo) sameMetadata(other fileInfo) bool {
	return fi.modTime.Equal(other.modTime) && fi.size == other.size && fi.mode == other.mode
}

// Result of a single poll.
type Result struct {
	// Changed lists added, removed and modified paths in lexical order.
	Changed []string
	Err     error
}

// HasChanged reports whether any file changed.
func (r Result) HasChanged() bool {
	return len(r.Changed) > 0
}

// FSWatcher detects changes by comparing consecutive polls.
// Content is only hashed for new files and files whose metadata changed,
// a touched file with unchanged content is not reported.
type FSWatcher struct {
	roots    []Root
	interval time.Duration
	state    map[string]fileInfo
}

// New returns a watcher for roots that polls every interval.
// Nil file systems are skipped.
func New(interval time.Duration, roots ...Root) *FSWatcher {
	fsw := &FSWatcher{interval: interval, state: make(map[string]fileInfo)}
	for _, root := range roots {
		if root.FS != nil {
			fsw.roots = append(fsw.roots, root)
		}
	}

	return fsw
}

func hashFile(fsys fs.FS, name string) (uint64, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	_, err = io.Copy(h, f)
	if err != nil {
		return 0, err
	}

	return h.Sum64(), nil
}

// collectState walks all roots, the content hash is carried over from the previous state if the metadata is unchanged.
func (fsw *FSWatcher) collectState() (map[string]fileInfo, error) {
	state := make(map[string]fileInfo, len(fsw.state))
	for _, root := range fsw.roots {
		root := root
		err := fs.WalkDir(root.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			name := path.Join(root.Name, p)
			current := fileInfo{
				modTime: info.ModTime(),
				size:    info.Size(),
				mode:    info.Mode(),
			}

			last, ok := fsw.state[name]
			if ok && current.sameMetadata(last) {
				current.sum = last.sum
			} else {
				current.sum, err = hashFile(root.FS, p)
				if err != nil {
					return err
				}
			}
			state[name] = current

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return state, nil
}

// Scan records the current state without reporting changes.
func (fsw *FSWatcher) Scan() error {
	state, err := fsw.collectState()
	if err != nil {
		return err
	}
	fsw.state = state

	return nil
}

// Diff walks all roots and returns the paths that were added, removed or modified since the last call.
func (fsw *FSWatcher) Diff() ([]string, error) {
	state, err := fsw.collectState()
	if err != nil {
		return nil, err
	}

	var changed []string
	for name, info := range state {
		last, ok := fsw.state[name]
		if !ok || info.sum != last.sum || info.mode != last.mode {
			changed = append(changed, name)
		}
	}
	for name := range fsw.state {
		if _, ok := state[name]; !ok {
			changed = append(changed, name)
		}
	}
	fsw.state = state
	sort.Strings(changed)

	return changed, nil
}

// Watch polls until ctx is done and sends a Result whenever files changed or polling failed.
// The initial state is recorded before Watch returns. The channel is closed when ctx is done.
func (fsw *FSWatcher) Watch(ctx context.Context) <-chan Result {
	resultCh := make(chan Result)
	scanErr := fsw.Scan()

	go func() {
		defer close(resultCh)

		if scanErr != nil {
			select {
			case resultCh <- Result{Err: scanErr}:
			case <-ctx.Done():
			}
			return
		}

		ticker := time.NewTicker(fsw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := fsw.Diff()
				if err == nil && len(changed) == 0 {
					continue
				}

				select {
				case resultCh <- Result{Changed: changed, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultCh
}
