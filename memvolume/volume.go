// Package memvolume is an in-memory volume: an arena of file and directory
// objects keyed by record number. It is what the navigator is tested
// against and can be loaded from a YAML manifest for development.

package memvolume

import (
	"bytes"
	"errors"
	"io"
	"sort"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// FirstUserRecordNumber is where records are allocated from when the
	// caller does not choose one.
	FirstUserRecordNumber volume.RecordNumber = 64
)

var (
	// ErrRecordNotFound is returned for a record number that is not in use.
	ErrRecordNotFound = errors.New("record not in use")

	// ErrNameExists is returned when a directory already has a child with
	// the same (case-normalized) name.
	ErrNameExists = errors.New("name already exists in directory")

	// ErrNotDirectory is returned when adding children to a file.
	ErrNotDirectory = errors.New("record is not a directory")

	// ErrSimulatedFailure is the cause of every injected device failure.
	ErrSimulatedFailure = errors.New("simulated read failure")
)

type node struct {
	rn          volume.RecordNumber
	name        string
	isDirectory bool

	// children is kept in index (collation) order.
	children []*node
	streams  map[string][]byte

	failIndex   bool
	failStreams map[string]int
}

// MemoryVolume is a volume held entirely in memory.
type MemoryVolume struct {
	ut         volume.UpcaseTable
	nodes      map[volume.RecordNumber]*node
	nextRecord volume.RecordNumber
}

// NewMemoryVolume returns a volume with just an empty root directory.
func NewMemoryVolume() *MemoryVolume {
	root := &node{
		rn:          volume.RootRecordNumber,
		name:        "",
		isDirectory: true,
		streams:     make(map[string][]byte),
	}

	return &MemoryVolume{
		ut: volume.NewDefaultUpcaseTable(),
		nodes: map[volume.RecordNumber]*node{
			volume.RootRecordNumber: root,
		},
		nextRecord: FirstUserRecordNumber,
	}
}

// SetUpcaseTable replaces the case table. Only meaningful before the volume
// is handed to a navigator.
func (mv *MemoryVolume) SetUpcaseTable(ut volume.UpcaseTable) {
	mv.ut = ut
}

// UpcaseTable returns the case-normalization table.
func (mv *MemoryVolume) UpcaseTable() volume.UpcaseTable {
	return mv.ut
}

// File returns the object with the given record number.
func (mv *MemoryVolume) File(rn volume.RecordNumber) (volume.File, error) {
	n, found := mv.nodes[rn]
	if found == false {
		return nil, log.Wrap(ErrRecordNotFound)
	}

	mf := &memoryFile{
		mv: mv,
		n:  n,
	}

	return mf, nil
}

func (mv *MemoryVolume) allocate(rn volume.RecordNumber) (volume.RecordNumber, error) {
	if rn == 0 {
		for {
			rn = mv.nextRecord
			mv.nextRecord++

			if _, found := mv.nodes[rn]; found == false {
				break
			}
		}

		return rn, nil
	}

	if _, found := mv.nodes[rn]; found == true {
		return 0, log.Errorf("record (%d) already in use", rn)
	}

	return rn, nil
}

func (mv *MemoryVolume) addChild(parent volume.RecordNumber, rn volume.RecordNumber, name string, isDirectory bool) (child *node, err error) {
	parentNode, found := mv.nodes[parent]
	if found == false {
		return nil, log.Wrap(ErrRecordNotFound)
	} else if parentNode.isDirectory == false {
		return nil, log.Wrap(ErrNotDirectory)
	}

	i := sort.Search(len(parentNode.children), func(i int) bool {
		return mv.ut.Compare(parentNode.children[i].name, name) >= 0
	})

	if i < len(parentNode.children) && mv.ut.Equal(parentNode.children[i].name, name) == true {
		return nil, log.Wrap(ErrNameExists)
	}

	rn, err = mv.allocate(rn)
	if err != nil {
		return nil, err
	}

	child = &node{
		rn:          rn,
		name:        name,
		isDirectory: isDirectory,
		streams:     make(map[string][]byte),
	}

	children := append(parentNode.children, nil)
	copy(children[i+1:], children[i:])
	children[i] = child

	parentNode.children = children
	mv.nodes[rn] = child

	return child, nil
}

// AddDirectory creates a directory under `parent` and returns its record.
func (mv *MemoryVolume) AddDirectory(parent volume.RecordNumber, name string) (volume.RecordNumber, error) {
	return mv.AddDirectoryWithRecord(parent, 0, name)
}

// AddDirectoryWithRecord is AddDirectory with a chosen record number (zero
// allocates the next free one).
func (mv *MemoryVolume) AddDirectoryWithRecord(parent, rn volume.RecordNumber, name string) (volume.RecordNumber, error) {
	child, err := mv.addChild(parent, rn, name, true)
	if err != nil {
		return 0, err
	}

	return child.rn, nil
}

// AddFile creates a file with the given default-stream content.
func (mv *MemoryVolume) AddFile(parent volume.RecordNumber, name string, data []byte) (volume.RecordNumber, error) {
	return mv.AddFileWithRecord(parent, 0, name, data)
}

// AddFileWithRecord is AddFile with a chosen record number (zero allocates
// the next free one).
func (mv *MemoryVolume) AddFileWithRecord(parent, rn volume.RecordNumber, name string, data []byte) (volume.RecordNumber, error) {
	child, err := mv.addChild(parent, rn, name, false)
	if err != nil {
		return 0, err
	}

	child.streams[""] = data

	return child.rn, nil
}

// SetStream sets (or replaces) a stream. The empty name is the default
// stream.
func (mv *MemoryVolume) SetStream(rn volume.RecordNumber, streamName string, data []byte) error {
	n, found := mv.nodes[rn]
	if found == false {
		return log.Wrap(ErrRecordNotFound)
	}

	n.streams[streamName] = data

	return nil
}

// FailIndex makes every later attempt to open the directory index of `rn`
// fail as a device error.
func (mv *MemoryVolume) FailIndex(rn volume.RecordNumber) error {
	n, found := mv.nodes[rn]
	if found == false {
		return log.Wrap(ErrRecordNotFound)
	}

	n.failIndex = true

	return nil
}

// FailStream makes reads of the given stream fail as a device error once
// `afterBytes` bytes have been delivered.
func (mv *MemoryVolume) FailStream(rn volume.RecordNumber, streamName string, afterBytes int) error {
	n, found := mv.nodes[rn]
	if found == false {
		return log.Wrap(ErrRecordNotFound)
	}

	if n.failStreams == nil {
		n.failStreams = make(map[string]int)
	}

	n.failStreams[streamName] = afterBytes

	return nil
}

type memoryFile struct {
	mv *MemoryVolume
	n  *node
}

func (mf *memoryFile) RecordNumber() volume.RecordNumber {
	return mf.n.rn
}

func (mf *memoryFile) IsDirectory() bool {
	return mf.n.isDirectory
}

func (mf *memoryFile) DirectoryIndex() (volume.Index, error) {
	if mf.n.isDirectory == false {
		return nil, log.Wrap(ErrNotDirectory)
	} else if mf.n.failIndex == true {
		return nil, volume.NewDeviceIoError("directory index", ErrSimulatedFailure)
	}

	mi := &memoryIndex{
		n: mf.n,
	}

	return mi, nil
}

func (mf *memoryFile) Data(streamName string) (s volume.Stream, found bool, err error) {
	data, found := mf.n.streams[streamName]
	if found == false {
		return nil, false, nil
	}

	ms := &memoryStream{
		r:         bytes.NewReader(data),
		length:    int64(len(data)),
		failAfter: -1,
	}

	if afterBytes, found := mf.n.failStreams[streamName]; found == true {
		ms.failAfter = afterBytes
	}

	return ms, true, nil
}

type memoryIndex struct {
	n *node
}

func (mi *memoryIndex) Find(name string, ut volume.UpcaseTable) (ie volume.IndexEntry, found bool, err error) {
	children := mi.n.children

	i := sort.Search(len(children), func(i int) bool {
		return ut.Compare(children[i].name, name) >= 0
	})

	if i >= len(children) || ut.Equal(children[i].name, name) == false {
		return nil, false, nil
	}

	return memoryIndexEntry{n: children[i]}, true, nil
}

func (mi *memoryIndex) Entries() (entries []volume.IndexEntry, err error) {
	entries = make([]volume.IndexEntry, len(mi.n.children))
	for i, child := range mi.n.children {
		entries[i] = memoryIndexEntry{n: child}
	}

	return entries, nil
}

type memoryIndexEntry struct {
	n *node
}

func (mie memoryIndexEntry) Name() string {
	return mie.n.name
}

func (mie memoryIndexEntry) IsDirectory() bool {
	return mie.n.isDirectory
}

func (mie memoryIndexEntry) RecordNumber() volume.RecordNumber {
	return mie.n.rn
}

type memoryStream struct {
	r      *bytes.Reader
	length int64

	// failAfter is negative when the stream never fails.
	failAfter int
	delivered int
}

func (ms *memoryStream) Len() int64 {
	return ms.length
}

func (ms *memoryStream) Read(p []byte) (n int, err error) {
	if ms.failAfter >= 0 {
		remaining := ms.failAfter - ms.delivered
		if remaining <= 0 {
			return 0, volume.NewDeviceIoError("stream read", ErrSimulatedFailure)
		} else if len(p) > remaining {
			p = p[:remaining]
		}
	}

	n, err = ms.r.Read(p)
	ms.delivered += n

	if err != nil && err != io.EOF {
		return n, volume.NewDeviceIoError("stream read", err)
	}

	return n, err
}
