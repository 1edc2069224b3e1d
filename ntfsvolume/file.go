package ntfsvolume

import (
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/dsoprea/go-logging"
	"www.velocidex.com/golang/go-ntfs/parser"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// indexEntryLastFlag marks the terminating entry of an index node. It
	// carries no file name.
	indexEntryLastFlag = 0x2

	// fileNameDirectoryFlag is set in the `$FILE_NAME` flags of directories.
	fileNameDirectoryFlag = 0x10000000

	fileNameTypeDos = 2
)

var (
	// ErrNotDirectory is returned when asking a file for its index.
	ErrNotDirectory = errors.New("record is not a directory")
)

type ntfsFile struct {
	nv          *NtfsVolume
	rn          volume.RecordNumber
	mftEntry    *parser.MFT_ENTRY
	isDirectory bool
}

func (nf *ntfsFile) RecordNumber() volume.RecordNumber {
	return nf.rn
}

func (nf *ntfsFile) IsDirectory() bool {
	return nf.isDirectory
}

// DirectoryIndex reads the `$I30` index of the directory. Every file appears
// once, under its long name, however many names the index carries for it.
func (nf *ntfsFile) DirectoryIndex() (index volume.Index, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(volume.NewDeviceIoError("directory index", err))
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	if nf.isDirectory == false {
		return nil, log.Wrap(ErrNotDirectory)
	}

	nv := nf.nv
	mark := nv.dr.mark()

	ni := &ntfsIndex{
		positions: make(map[volume.RecordNumber]int),
	}

	for _, attr := range nf.mftEntry.EnumerateAttributes(nv.ntfs) {
		switch attr.Type().Value {
		case indexRootAttributeType:
			node := nv.ntfs.Profile.INDEX_ROOT(attr.Data(nv.ntfs), 0).Node()
			nf.addRecords(ni, node.GetRecords(nv.ntfs))

		case indexAllocationAttributeType:
			r := attr.Data(nv.ntfs)
			size := attr.DataSize()

			for offset := int64(0); offset < size; offset += indexBlockSize {
				blockMark := nv.dr.mark()

				sih, err := parser.DecodeSTANDARD_INDEX_HEADER(nv.ntfs, r, offset, indexBlockSize)
				if err != nil {
					deviceErr := nv.dr.failedSince(blockMark)
					log.PanicIf(deviceErr)

					// Allocated blocks that are not in use do not carry valid
					// fixups.
					volumeLogger.Debugf(nil, "Skipping index block at (%d) of record (%d): %v", offset, nf.rn, err)
					continue
				}

				nf.addRecords(ni, sih.Node().GetRecords(nv.ntfs))
			}
		}
	}

	err = nv.dr.failedSince(mark)
	log.PanicIf(err)

	ut := nv.ut
	sort.SliceStable(ni.entries, func(i, j int) bool {
		return ut.Compare(ni.entries[i].name, ni.entries[j].name) < 0
	})

	return ni, nil
}

// addRecords merges the records of one index node. Names are folded per
// record number: a DOS short name only becomes the display name when it is
// the only name we see.
func (nf *ntfsFile) addRecords(ni *ntfsIndex, records []*parser.INDEX_RECORD_ENTRY) {
	for _, record := range records {
		if record.Flags()&indexEntryLastFlag != 0 {
			continue
		}

		rn := volume.RecordNumber(record.MftReference())

		// The root lists itself as ".".
		if rn == nf.rn {
			continue
		}

		fn := record.File()
		name := fn.Name()

		// A colon never appears in a file name. Such names refer to streams.
		if name == "" || name == "." || strings.Contains(name, ":") == true {
			continue
		}

		isDos := fn.NameType().Value == fileNameTypeDos

		position, found := ni.positions[rn]
		if found == false {
			ni.positions[rn] = len(ni.entries)

			nie := &ntfsIndexEntry{
				name:        name,
				names:       []string{name},
				rn:          rn,
				isDirectory: fn.Flags().Value&fileNameDirectoryFlag != 0,
				isDosName:   isDos,
			}

			ni.entries = append(ni.entries, nie)
			continue
		}

		nie := ni.entries[position]

		alreadyKnown := false
		for _, existing := range nie.names {
			if existing == name {
				alreadyKnown = true
				break
			}
		}

		if alreadyKnown == true {
			continue
		}

		nie.names = append(nie.names, name)

		if nie.isDosName == true && isDos == false {
			nie.name = name
			nie.isDosName = false
		}
	}
}

// Data returns the $DATA stream with the given name. Stream names compare
// case-insensitively, like file names. A stream that is split over several
// attributes (extents) is returned whole.
func (nf *ntfsFile) Data(streamName string) (s volume.Stream, found bool, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(volume.NewDeviceIoError("data stream", err))
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	nv := nf.nv
	ut := nv.ut
	mark := nv.dr.mark()

	isFirst := true
	for _, attr := range nf.mftEntry.EnumerateAttributes(nv.ntfs) {
		if attr.Type().Value != dataAttributeType {
			continue
		}

		wasFirst := isFirst
		isFirst = false

		isResident := attr.IsResident()

		// Only the first extent describes the stream.
		if isResident == false && attr.Runlist_vcn_start() != 0 {
			continue
		}

		name := attr.Name()

		// The case table is not loaded yet while we read `$UpCase` itself.
		if ut == nil {
			if name != streamName {
				continue
			}
		} else if ut.Equal(name, streamName) == false {
			continue
		}

		var r io.ReaderAt

		// Attribute ID zero asks the parser for the first stream of the
		// type, which is only right if this is that stream.
		attributeId := attr.Attribute_id()
		if isResident == true || (attributeId == 0 && wasFirst == false) {
			r = attr.Data(nv.ntfs)
		} else {
			r, err = parser.OpenStream(nv.ntfs, nf.mftEntry, dataAttributeType, attributeId)
			log.PanicIf(err)
		}

		err = nv.dr.failedSince(mark)
		log.PanicIf(err)

		ns := &ntfsStream{
			dr: nv.dr,
			sr: io.NewSectionReader(r, 0, attr.DataSize()),
		}

		return ns, true, nil
	}

	err = nv.dr.failedSince(mark)
	log.PanicIf(err)

	return nil, false, nil
}

// ntfsIndex holds the entries of one directory in collation order.
type ntfsIndex struct {
	entries   []*ntfsIndexEntry
	positions map[volume.RecordNumber]int
}

// Find matches the long name or any other name of the file (including its
// DOS short name).
func (ni *ntfsIndex) Find(name string, ut volume.UpcaseTable) (ie volume.IndexEntry, found bool, err error) {
	for _, nie := range ni.entries {
		for _, candidate := range nie.names {
			if ut.Equal(candidate, name) == true {
				return nie, true, nil
			}
		}
	}

	return nil, false, nil
}

func (ni *ntfsIndex) Entries() (entries []volume.IndexEntry, err error) {
	entries = make([]volume.IndexEntry, len(ni.entries))
	for i, nie := range ni.entries {
		entries[i] = nie
	}

	return entries, nil
}

type ntfsIndexEntry struct {
	name        string
	names       []string
	rn          volume.RecordNumber
	isDirectory bool
	isDosName   bool
}

func (nie *ntfsIndexEntry) Name() string {
	return nie.name
}

func (nie *ntfsIndexEntry) IsDirectory() bool {
	return nie.isDirectory
}

func (nie *ntfsIndexEntry) RecordNumber() volume.RecordNumber {
	return nie.rn
}

type ntfsStream struct {
	dr *deviceReader
	sr *io.SectionReader
}

func (ns *ntfsStream) Len() int64 {
	return ns.sr.Size()
}

func (ns *ntfsStream) Read(p []byte) (n int, err error) {
	mark := ns.dr.mark()

	n, err = ns.sr.Read(p)
	if err != nil && err != io.EOF {
		return n, volume.NewDeviceIoError("stream read", err)
	}

	// Not every reader the parser stacks over the device passes its errors
	// up.
	if deviceErr := ns.dr.failedSince(mark); deviceErr != nil {
		return n, deviceErr
	}

	return n, err
}
