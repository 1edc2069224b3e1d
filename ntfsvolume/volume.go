// Package ntfsvolume opens a real NTFS volume (a raw device or an image
// file) and exposes it through the volume interfaces. Parsing is done by
// go-ntfs; this package only adapts it and reports device failures.

package ntfsvolume

import (
	"io"
	"os"
	"reflect"
	"strconv"
	"sync"

	"github.com/dsoprea/go-logging"
	"www.velocidex.com/golang/go-ntfs/parser"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// Reads are issued in whole pages so that raw devices, which require
	// sector-aligned access, can be read directly.
	pageSize      = 4096
	pageCacheSize = 1024

	dataAttributeType            = 0x80
	indexRootAttributeType       = 0x90
	indexAllocationAttributeType = 0xa0

	// indexBlockSize is the size of one `$INDEX_ALLOCATION` block.
	indexBlockSize = 0x1000
)

var (
	volumeLogger = log.NewLogger("ntfsnav.ntfsvolume")
)

// deviceReader reports every failure of the underlying reader as a device
// error. It also remembers failures, since the parser drops some read errors
// on the floor (attribute lists, resident data, index blocks) and we must
// not turn a bad sector into a missing file.
type deviceReader struct {
	r io.ReaderAt

	m        sync.Mutex
	failures int
	lastErr  error
}

func (dr *deviceReader) ReadAt(p []byte, offset int64) (n int, err error) {
	n, err = dr.r.ReadAt(p, offset)
	if err != nil && err != io.EOF {
		err = volume.NewDeviceIoError("read at ("+strconv.FormatInt(offset, 10)+")", err)

		dr.m.Lock()
		dr.failures++
		dr.lastErr = err
		dr.m.Unlock()

		return n, err
	}

	return n, err
}

// mark returns a token for failedSince.
func (dr *deviceReader) mark() int {
	dr.m.Lock()
	defer dr.m.Unlock()

	return dr.failures
}

// failedSince returns the last device error if any read failed after `mark`
// was taken.
func (dr *deviceReader) failedSince(mark int) error {
	dr.m.Lock()
	defer dr.m.Unlock()

	if dr.failures == mark {
		return nil
	}

	return dr.lastErr
}

// NtfsVolume is an opened NTFS filesystem.
type NtfsVolume struct {
	closer io.Closer
	dr     *deviceReader
	ntfs   *parser.NTFSContext
	ut     volume.UpcaseTable
}

// OpenOptions locates the filesystem within the device or image.
type OpenOptions struct {
	// Offset is the byte offset of the filesystem.
	Offset int64

	// Partition is the one-based partition number to open. If set, it
	// overrides Offset.
	Partition int
}

// Open opens the filesystem on the device or image at `filepath`.
func Open(filepath string, oo OpenOptions) (nv *NtfsVolume, err error) {
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

	offset := oo.Offset

	if oo.Partition > 0 {
		offset, err = PartitionOffset(filepath, oo.Partition)
		log.PanicIf(err)
	}

	f, err := os.Open(filepath)
	log.PanicIf(err)

	nv, err = OpenReaderAt(f, offset)
	if err != nil {
		f.Close()
		log.PanicIf(err)
	}

	nv.closer = f

	return nv, nil
}

// OpenReaderAt opens the filesystem found at `offset` in `r`. The case table
// is loaded here, once.
func OpenReaderAt(r io.ReaderAt, offset int64) (nv *NtfsVolume, err error) {
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

	dr := &deviceReader{r: r}

	pr, err := parser.NewPagedReader(dr, pageSize, pageCacheSize)
	log.PanicIf(err)

	ntfs, err := parser.GetNTFSContext(pr, offset)
	log.PanicIf(err)

	nv = &NtfsVolume{
		dr:   dr,
		ntfs: ntfs,
	}

	nv.ut, err = nv.loadUpcaseTable()
	log.PanicIf(err)

	volumeLogger.Debugf(nil, "Opened NTFS volume at offset (%d).", offset)

	return nv, nil
}

func (nv *NtfsVolume) loadUpcaseTable() (ut volume.UpcaseTable, err error) {
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

	nf, err := nv.file(volume.UpcaseRecordNumber)
	log.PanicIf(err)

	s, found, err := nf.Data("")
	log.PanicIf(err)

	if found == false {
		log.Panicf("$UpCase has no data stream")
	}

	raw := make([]byte, volume.UpcaseTableSize)

	_, err = io.ReadFull(s, raw)
	log.PanicIf(err)

	ut, err = volume.ParseUpcaseTable(raw)
	log.PanicIf(err)

	return ut, nil
}

// Close releases the device or image, if we opened it.
func (nv *NtfsVolume) Close() error {
	if nv.closer == nil {
		return nil
	}

	return nv.closer.Close()
}

// UpcaseTable returns the table loaded from `$UpCase`.
func (nv *NtfsVolume) UpcaseTable() volume.UpcaseTable {
	return nv.ut
}

// File returns the MFT entry with the given record number.
func (nv *NtfsVolume) File(rn volume.RecordNumber) (volume.File, error) {
	nf, err := nv.file(rn)
	if err != nil {
		return nil, err
	}

	return nf, nil
}

func (nv *NtfsVolume) file(rn volume.RecordNumber) (nf *ntfsFile, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(volume.NewDeviceIoError("MFT entry", err))
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	mark := nv.dr.mark()

	mftEntry, err := nv.ntfs.GetMFT(int64(rn))
	log.PanicIf(err)

	nf = &ntfsFile{
		nv:       nv,
		rn:       rn,
		mftEntry: mftEntry,
	}

	for _, attr := range mftEntry.EnumerateAttributes(nv.ntfs) {
		if attr.Type().Value == indexRootAttributeType {
			nf.isDirectory = true
			break
		}
	}

	err = nv.dr.failedSince(mark)
	log.PanicIf(err)

	return nf, nil
}
