package ntfsvolume

import (
	"bytes"
	"io"
	"os"
	"path"
	"sync"
	"testing"

	"github.com/dsoprea/go-logging"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

const (
	// The image has "Folder A\Folder B\Hello world text document.txt" with
	// a "goodbye.txt" stream, and a compressed "ones.bin" in the root.
	testImageFilename = "test.ntfs.dd.lz4"

	testRootRecordNumber    = 5
	testFolderARecordNumber = 41
	testFolderBRecordNumber = 45
	testHelloRecordNumber   = 46
	testOnesRecordNumber    = 38

	testHelloFilename = "Hello world text document.txt"
	testHelloData     = "Hello world!"
	testGoodbyeData   = "Goodbye cruel world."

	testOnesSize = 2949120
	testOnesSha1 = "f581eebdb9a49a622c305d4e44977bc91a4a1204"
)

var (
	testImageOnce sync.Once
	testImage     []byte
)

func getTestImage() []byte {
	testImageOnce.Do(func() {
		f, err := os.Open(path.Join("testdata", testImageFilename))
		log.PanicIf(err)

		defer f.Close()

		testImage, err = io.ReadAll(lz4.NewReader(f))
		log.PanicIf(err)
	})

	return testImage
}

// switchableReaderAt starts failing every read once `failing` is set.
type switchableReaderAt struct {
	r       io.ReaderAt
	failing bool
}

func (sra *switchableReaderAt) ReadAt(p []byte, offset int64) (int, error) {
	if sra.failing == true {
		return 0, errTestRead
	}

	return sra.r.ReadAt(p, offset)
}

func getTestVolume(t *testing.T) (nv *NtfsVolume, sra *switchableReaderAt) {
	sra = &switchableReaderAt{
		r: bytes.NewReader(getTestImage()),
	}

	nv, err := OpenReaderAt(sra, 0)
	require.NoError(t, err)

	return nv, sra
}
