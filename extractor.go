package ntfsnav

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// DefaultBufferSize is the size of the copy buffer.
	DefaultBufferSize = 4096

	// StreamSeparator separates a file name from a named stream
	// ("name:stream").
	StreamSeparator = ":"

	outputStreamSeparator = "_"
	outputFileMode        = 0644
)

var (
	extractorLogger = log.NewLogger("ntfsnav.extractor")
)

// SplitStreamName splits "name:stream" into its parts. Without a separator
// the stream name is empty, meaning the default stream.
func SplitStreamName(target string) (baseName, streamName string) {
	i := strings.Index(target, StreamSeparator)
	if i < 0 {
		return target, ""
	}

	return target[:i], target[i+len(StreamSeparator):]
}

// OutputFilename composes the local file name for a stream. A named stream
// becomes "name_stream" since the separator is not allowed in local names.
func OutputFilename(baseName, streamName string) string {
	if streamName == "" {
		return baseName
	}

	return baseName + outputStreamSeparator + streamName
}

// ExtractionResult describes one written stream.
type ExtractionResult struct {
	RecordNumber   volume.RecordNumber
	StreamName     string
	OutputFilepath string
	Length         int64
	Written        int64
}

func (er ExtractionResult) String() string {
	return fmt.Sprintf("ExtractionResult<RECORD=(%d) STREAM=[%s] OUTPUT=[%s] WRITTEN=(%d)>", er.RecordNumber, er.StreamName, er.OutputFilepath, er.Written)
}

// Extractor copies data streams out of a volume.
type Extractor struct {
	vol        volume.Volume
	bufferSize int
}

// NewExtractor returns an extractor that reads from `vol`.
func NewExtractor(vol volume.Volume) *Extractor {
	return &Extractor{
		vol:        vol,
		bufferSize: DefaultBufferSize,
	}
}

// SetBufferSize changes the copy-buffer size.
func (ex *Extractor) SetBufferSize(bufferSize int) {
	if bufferSize <= 0 {
		log.Panicf("buffer-size must be positive: (%d)", bufferSize)
	}

	ex.bufferSize = bufferSize
}

// ExtractTarget extracts the stream named by `target` ("name" or
// "name:stream") of record `rn` into `outputDirectory`.
func (ex *Extractor) ExtractTarget(rn volume.RecordNumber, target, outputDirectory string) (er ExtractionResult, err error) {
	baseName, streamName := SplitStreamName(target)
	return ex.Extract(rn, baseName, streamName, outputDirectory)
}

// Extract writes one stream of record `rn` to a new file in
// `outputDirectory`. The output file must not exist yet. A missing stream
// returns ErrMissingDataStream without creating anything. If the copy fails
// part-way, the partially-written file is left behind and the error says so.
func (ex *Extractor) Extract(rn volume.RecordNumber, baseName, streamName, outputDirectory string) (er ExtractionResult, err error) {
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

	f, err := ex.vol.File(rn)
	log.PanicIf(err)

	if f.IsDirectory() == true && streamName == "" {
		return er, &NotAFileError{Path: baseName}
	}

	s, found, err := f.Data(streamName)
	log.PanicIf(err)

	if found == false {
		extractorLogger.Warningf(nil, "Record (%d) does not have a [%s] data stream.", rn, streamName)
		return er, fmt.Errorf("%w: [%s] on record (%d)", ErrMissingDataStream, streamName, rn)
	}

	outputFilepath := filepath.Join(outputDirectory, OutputFilename(baseName, streamName))

	g, err := os.OpenFile(outputFilepath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, outputFileMode)
	if err != nil {
		if os.IsExist(err) == true {
			return er, &OutputExistsError{Path: outputFilepath}
		}

		log.PanicIf(err)
	}

	defer g.Close()

	er = ExtractionResult{
		RecordNumber:   rn,
		StreamName:     streamName,
		OutputFilepath: outputFilepath,
		Length:         s.Len(),
	}

	extractorLogger.Infof(nil, "Saving (%s) of data in [%s].", humanize.Bytes(uint64(s.Len())), outputFilepath)

	er.Written, err = ex.copyStream(g, s)
	if err != nil {
		return er, fmt.Errorf("extraction into [%s] stopped after (%d) bytes; the partial file was left in place: %w", outputFilepath, er.Written, err)
	}

	err = g.Close()
	log.PanicIf(err)

	return er, nil
}

func (ex *Extractor) copyStream(w io.Writer, s volume.Stream) (written int64, err error) {
	buffer := make([]byte, ex.bufferSize)

	for {
		n, err := s.Read(buffer)
		if n > 0 {
			_, writeErr := w.Write(buffer[:n])
			if writeErr != nil {
				return written, writeErr
			}

			written += int64(n)
		}

		if err == io.EOF {
			break
		} else if err != nil {
			return written, err
		}

		// A zero-length read is the end of the stream.
		if n == 0 {
			break
		}
	}

	return written, nil
}
