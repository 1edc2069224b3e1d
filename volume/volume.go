// Package volume describes the read-only metadata layer that the navigator
// consumes. Concrete volumes (a real NTFS image or an in-memory fixture)
// implement these interfaces; the navigator never sees raw bytes.

package volume

import (
	"fmt"
	"io"
)

// RecordNumber is the MFT record number of a file or directory. It is the
// identity we hold onto instead of borrowed file objects.
type RecordNumber uint64

const (
	// RootRecordNumber is the fixed record of the volume root directory.
	RootRecordNumber RecordNumber = 5

	// UpcaseRecordNumber is the fixed record of the `$UpCase` system file.
	UpcaseRecordNumber RecordNumber = 10
)

// String returns the decimal form of the record number.
func (rn RecordNumber) String() string {
	return fmt.Sprintf("%d", rn)
}

// Volume is an opened, read-only filesystem. The case table is loaded once
// when the volume is opened and never changes afterward.
type Volume interface {
	// File fetches the object with the given record number.
	File(rn RecordNumber) (File, error)

	// UpcaseTable returns the case-normalization table of the volume.
	UpcaseTable() UpcaseTable
}

// File is a file or directory object.
type File interface {
	RecordNumber() RecordNumber
	IsDirectory() bool

	// DirectoryIndex returns the index over the children of a directory. An
	// I/O failure here is not the same thing as a missing child.
	DirectoryIndex() (Index, error)

	// Data returns the stream with the given name. The empty name is the
	// default (unnamed) stream. `found` is false if there is no such stream.
	Data(streamName string) (s Stream, found bool, err error)
}

// Index is the sorted index over the children of one directory.
type Index interface {
	// Find returns the entry whose name matches under the given case table.
	Find(name string, ut UpcaseTable) (ie IndexEntry, found bool, err error)

	// Entries returns every entry in index order.
	Entries() (entries []IndexEntry, err error)
}

// IndexEntry is one child as recorded in its parent's index.
type IndexEntry interface {
	Name() string
	IsDirectory() bool

	// RecordNumber is used to materialize the entry via Volume.File().
	RecordNumber() RecordNumber
}

// Stream is a readable data stream with a known length. Read returns io.EOF
// (and zero bytes) once the stream is exhausted.
type Stream interface {
	io.Reader

	Len() int64
}
