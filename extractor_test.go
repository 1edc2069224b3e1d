package ntfsnav

import (
	"bytes"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

func TestSplitStreamName(t *testing.T) {
	baseName, streamName := SplitStreamName("notes.txt")
	if baseName != "notes.txt" || streamName != "" {
		t.Fatalf("Split not correct: [%s] [%s]", baseName, streamName)
	}

	baseName, streamName = SplitStreamName("notes.txt:Zone.Identifier")
	if baseName != "notes.txt" || streamName != "Zone.Identifier" {
		t.Fatalf("Split not correct: [%s] [%s]", baseName, streamName)
	}
}

func TestOutputFilename(t *testing.T) {
	if OutputFilename("notes.txt", "") != "notes.txt" {
		t.Fatalf("Default-stream filename not correct.")
	} else if OutputFilename("notes.txt", "Zone.Identifier") != "notes.txt_Zone.Identifier" {
		t.Fatalf("Named-stream filename not correct.")
	}
}

func TestExtractor_Extract_DefaultStream(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	outputPath := t.TempDir()

	er, err := ex.Extract(testNotesRecordNumber, "notes.txt", "", outputPath)
	log.PanicIf(err)

	expectedFilepath := path.Join(outputPath, "notes.txt")

	if er.OutputFilepath != expectedFilepath {
		t.Fatalf("Output path not correct: [%s]", er.OutputFilepath)
	} else if er.Written != int64(len(testNotesData)) {
		t.Fatalf("Written count not correct: (%d)", er.Written)
	} else if er.Length != er.Written {
		t.Fatalf("Length and written count differ: (%d) != (%d)", er.Length, er.Written)
	}

	data, err := os.ReadFile(expectedFilepath)
	log.PanicIf(err)

	if string(data) != testNotesData {
		t.Fatalf("Data not correct: [%s]", string(data))
	}
}

func TestExtractor_Extract_NamedStream(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	outputPath := t.TempDir()

	er, err := ex.ExtractTarget(testNotesRecordNumber, "notes.txt:Zone.Identifier", outputPath)
	log.PanicIf(err)

	if er.StreamName != "Zone.Identifier" {
		t.Fatalf("Stream name not correct: [%s]", er.StreamName)
	}

	data, err := os.ReadFile(path.Join(outputPath, "notes.txt_Zone.Identifier"))
	log.PanicIf(err)

	if string(data) != testZoneData {
		t.Fatalf("Data not correct: [%s]", string(data))
	}
}

func TestExtractor_Extract_SmallBuffer(t *testing.T) {
	mv := getTestVolume()

	ex := NewExtractor(mv)
	ex.SetBufferSize(1)

	outputPath := t.TempDir()

	er, err := ex.Extract(testNotesRecordNumber, "notes.txt", "", outputPath)
	log.PanicIf(err)

	data, err := os.ReadFile(er.OutputFilepath)
	log.PanicIf(err)

	if string(data) != testNotesData {
		t.Fatalf("Data not correct: [%s]", string(data))
	}
}

func TestExtractor_Extract_EmptyStream(t *testing.T) {
	mv := getTestVolume()

	rn, err := mv.AddFile(volume.RootRecordNumber, "empty.txt", []byte{})
	log.PanicIf(err)

	ex := NewExtractor(mv)
	outputPath := t.TempDir()

	er, err := ex.Extract(rn, "empty.txt", "", outputPath)
	log.PanicIf(err)

	if er.Written != 0 {
		t.Fatalf("Written count not correct: (%d)", er.Written)
	}

	s, err := os.Stat(er.OutputFilepath)
	log.PanicIf(err)

	if s.Size() != 0 {
		t.Fatalf("Output not empty: (%d)", s.Size())
	}
}

func TestExtractor_Extract_OutputExists(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	outputPath := t.TempDir()
	existingFilepath := path.Join(outputPath, "notes.txt")

	err := os.WriteFile(existingFilepath, []byte("original"), 0644)
	log.PanicIf(err)

	_, err = ex.Extract(testNotesRecordNumber, "notes.txt", "", outputPath)

	var oee *OutputExistsError
	if errors.As(err, &oee) != true {
		t.Fatalf("Error not correct: [%v]", err)
	} else if errors.Is(err, os.ErrExist) != true {
		t.Fatalf("Error does not match os.ErrExist.")
	}

	data, err := os.ReadFile(existingFilepath)
	log.PanicIf(err)

	if string(data) != "original" {
		t.Fatalf("Existing file was modified: [%s]", string(data))
	}
}

func TestExtractor_Extract_MissingStream(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	outputPath := t.TempDir()

	_, err := ex.Extract(testNotesRecordNumber, "notes.txt", "absent", outputPath)
	if errors.Is(err, ErrMissingDataStream) != true {
		t.Fatalf("Error not correct: [%v]", err)
	}

	files, err := os.ReadDir(outputPath)
	log.PanicIf(err)

	if len(files) != 0 {
		t.Fatalf("Expected no output: (%d)", len(files))
	}
}

func TestExtractor_Extract_DeviceFailure(t *testing.T) {
	mv := getTestVolume()

	err := mv.FailStream(testNotesRecordNumber, "", 10)
	log.PanicIf(err)

	ex := NewExtractor(mv)
	ex.SetBufferSize(4)

	outputPath := t.TempDir()

	er, err := ex.Extract(testNotesRecordNumber, "notes.txt", "", outputPath)

	var die *volume.DeviceIoError
	if errors.As(err, &die) != true {
		t.Fatalf("Expected a device error: [%v]", err)
	} else if er.Written != 10 {
		t.Fatalf("Written count not correct: (%d)", er.Written)
	}

	// The partial output stays in place.
	data, err := os.ReadFile(path.Join(outputPath, "notes.txt"))
	log.PanicIf(err)

	if string(data) != testNotesData[:10] {
		t.Fatalf("Partial data not correct: [%s]", string(data))
	}
}

func TestExtractor_Extract_Directory(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	_, err := ex.Extract(testUsersRecordNumber, "Users", "", t.TempDir())

	var nafe *NotAFileError
	if errors.As(err, &nafe) != true {
		t.Fatalf("Error not correct: [%v]", err)
	}
}

func TestExtractor_Extract_MissingRecord(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	_, err := ex.Extract(9999, "x", "", t.TempDir())
	if err == nil {
		t.Fatalf("Expected failure.")
	}
}

func TestExtractor_Extract_RoundTrip(t *testing.T) {
	mv := getTestVolume()
	ex := NewExtractor(mv)

	outputPath := t.TempDir()

	first, err := ex.Extract(testNotesRecordNumber, "first.txt", "", outputPath)
	log.PanicIf(err)

	second, err := ex.Extract(testNotesRecordNumber, "second.txt", "", outputPath)
	log.PanicIf(err)

	firstData, err := os.ReadFile(first.OutputFilepath)
	log.PanicIf(err)

	secondData, err := os.ReadFile(second.OutputFilepath)
	log.PanicIf(err)

	if bytes.Equal(firstData, secondData) != true {
		t.Fatalf("Extractions differ.")
	}
}
