// Package ntfsnav resolves paths against an opened NTFS volume, navigates its
// directories and extracts file streams.

package ntfsnav

import (
	"reflect"
	"strings"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// PathSeparator separates the components of a volume path.
	PathSeparator = `\`
)

var (
	indexLogger = log.NewLogger("ntfsnav.index")
)

// DirectoryEntry is one child of a directory as found in its index.
type DirectoryEntry struct {
	Name         string
	RecordNumber volume.RecordNumber
	IsDirectory  bool
}

func newDirectoryEntry(ie volume.IndexEntry) DirectoryEntry {
	return DirectoryEntry{
		Name:         ie.Name(),
		RecordNumber: ie.RecordNumber(),
		IsDirectory:  ie.IsDirectory(),
	}
}

// Open materializes the entry into a file (or directory) object.
func (de DirectoryEntry) Open(vol volume.Volume) (volume.File, error) {
	f, err := vol.File(de.RecordNumber)
	if err != nil {
		return nil, log.Wrap(err)
	}

	return f, nil
}

func openIndex(vol volume.Volume, directory volume.RecordNumber) (index volume.Index, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	f, err := vol.File(directory)
	log.PanicIf(err)

	index, err = f.DirectoryIndex()
	log.PanicIf(err)

	return index, nil
}

// LookupChild finds the child of `directory` with the given name, using the
// volume's case table. An I/O failure is returned as an error and is never
// reported as a miss.
func LookupChild(vol volume.Volume, directory volume.RecordNumber, name string) (de DirectoryEntry, found bool, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	index, err := openIndex(vol, directory)
	log.PanicIf(err)

	ie, found, err := index.Find(name, vol.UpcaseTable())
	log.PanicIf(err)

	if found == false {
		indexLogger.Debugf(nil, "No entry [%s] in directory (%d).", name, directory)
		return de, false, nil
	}

	return newDirectoryEntry(ie), true, nil
}

// ListDirectory returns the children of `directory` in index order.
func ListDirectory(vol volume.Volume, directory volume.RecordNumber) (entries []DirectoryEntry, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	index, err := openIndex(vol, directory)
	log.PanicIf(err)

	indexEntries, err := index.Entries()
	log.PanicIf(err)

	entries = make([]DirectoryEntry, len(indexEntries))
	for i, ie := range indexEntries {
		entries[i] = newDirectoryEntry(ie)
	}

	return entries, nil
}

// WalkVisitorFunc is called for every entry below the starting directory.
// `pathParts` are the components relative to that directory.
type WalkVisitorFunc func(pathParts []string, de DirectoryEntry) (err error)

// Walk visits every entry below `directory`. The subdirectories of a
// directory are descended into first and its files are visited afterward,
// all in index order.
func Walk(vol volume.Volume, directory volume.RecordNumber, cb WalkVisitorFunc) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	visited := map[volume.RecordNumber]bool{
		directory: true,
	}

	err = walk(vol, directory, make([]string, 0), visited, cb)
	log.PanicIf(err)

	return nil
}

func walk(vol volume.Volume, directory volume.RecordNumber, pathParts []string, visited map[volume.RecordNumber]bool, cb WalkVisitorFunc) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	entries, err := ListDirectory(vol, directory)
	log.PanicIf(err)

	files := make([]DirectoryEntry, 0)

	for _, de := range entries {
		if de.IsDirectory == false {
			files = append(files, de)
			continue
		}

		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = de.Name

		err := cb(childPathParts, de)
		log.PanicIf(err)

		// A damaged index could point back up the tree.
		if visited[de.RecordNumber] == true {
			indexLogger.Warningf(nil, "Directory (%d) already visited; not descending into [%s].", de.RecordNumber, strings.Join(childPathParts, PathSeparator))
			continue
		}

		visited[de.RecordNumber] = true

		err = walk(vol, de.RecordNumber, childPathParts, visited, cb)
		log.PanicIf(err)
	}

	// Do the files all at once, at the bottom.
	for _, de := range files {
		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = de.Name

		err := cb(childPathParts, de)
		log.PanicIf(err)
	}

	return nil
}

// List returns the backslash-joined paths of everything below `directory`
// along with a lookup from path to entry.
func List(vol volume.Volume, directory volume.RecordNumber) (paths []string, entries map[string]DirectoryEntry, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	paths = make([]string, 0)
	entries = make(map[string]DirectoryEntry)

	cb := func(pathParts []string, de DirectoryEntry) (err error) {
		nodePath := strings.Join(pathParts, PathSeparator)

		paths = append(paths, nodePath)
		entries[nodePath] = de

		return nil
	}

	err = Walk(vol, directory, cb)
	log.PanicIf(err)

	return paths, entries, nil
}
