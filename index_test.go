package ntfsnav

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

func TestLookupChild(t *testing.T) {
	mv := getTestVolume()

	de, found, err := LookupChild(mv, testUsersRecordNumber, "JOSEPH")
	log.PanicIf(err)

	if found != true {
		t.Fatalf("Expected to find the child.")
	} else if de.Name != "joseph" {
		t.Fatalf("Name not correct: [%s]", de.Name)
	} else if de.RecordNumber != testJosephRecordNumber {
		t.Fatalf("Record not correct: (%d)", de.RecordNumber)
	} else if de.IsDirectory != true {
		t.Fatalf("Expected a directory.")
	}

	_, found, err = LookupChild(mv, testUsersRecordNumber, "jos")
	log.PanicIf(err)

	if found != false {
		t.Fatalf("Expected a miss for a prefix of a name.")
	}
}

func TestLookupChild_DeviceError(t *testing.T) {
	mv := getTestVolume()

	err := mv.FailIndex(volume.RootRecordNumber)
	log.PanicIf(err)

	_, found, err := LookupChild(mv, volume.RootRecordNumber, "Users")
	if found != false {
		t.Fatalf("Expected no result on failure.")
	}

	var die *volume.DeviceIoError
	if errors.As(err, &die) != true {
		t.Fatalf("Expected a device error: [%v]", err)
	}
}

func TestDirectoryEntry_Open(t *testing.T) {
	mv := getTestVolume()

	de, found, err := LookupChild(mv, testJosephRecordNumber, "notes.txt")
	log.PanicIf(err)

	if found != true {
		t.Fatalf("Expected to find the file.")
	}

	f, err := de.Open(mv)
	log.PanicIf(err)

	if f.RecordNumber() != testNotesRecordNumber {
		t.Fatalf("Record not correct: (%d)", f.RecordNumber())
	} else if f.IsDirectory() != false {
		t.Fatalf("Expected a file.")
	}
}

func TestListDirectory(t *testing.T) {
	mv := getTestVolume()

	entries, err := ListDirectory(mv, volume.RootRecordNumber)
	log.PanicIf(err)

	names := make([]string, len(entries))
	for i, de := range entries {
		names[i] = de.Name
	}

	expected := []string{"pagefile.sys", "Users", "Windows"}
	if reflect.DeepEqual(names, expected) != true {
		t.Fatalf("Names not correct: %v", names)
	}

	if entries[0].IsDirectory != false || entries[1].IsDirectory != true {
		t.Fatalf("Directory flags not correct: %v", entries)
	}
}

func TestListDirectory_NotDirectory(t *testing.T) {
	mv := getTestVolume()

	_, err := ListDirectory(mv, testNotesRecordNumber)
	if err == nil {
		t.Fatalf("Expected failure for a file.")
	}
}

func TestList(t *testing.T) {
	mv := getTestVolume()

	paths, entries, err := List(mv, volume.RootRecordNumber)
	log.PanicIf(err)

	expected := []string{
		`Users`,
		`Users\joseph`,
		`Users\joseph\Documents`,
		`Users\joseph\notes.txt`,
		`Users\Public`,
		`Windows`,
		`Windows\System32`,
		`Windows\win.ini`,
		`pagefile.sys`,
	}

	if reflect.DeepEqual(paths, expected) != true {
		for i, path := range paths {
			t.Logf("PATH (%d): [%s]", i, path)
		}

		t.Fatalf("Paths not correct.")
	}

	de, found := entries[`Users\joseph\notes.txt`]
	if found != true {
		t.Fatalf("Entry not indexed by path.")
	} else if de.RecordNumber != testNotesRecordNumber {
		t.Fatalf("Record not correct: (%d)", de.RecordNumber)
	}
}

func TestList_Subdirectory(t *testing.T) {
	mv := getTestVolume()

	paths, _, err := List(mv, testJosephRecordNumber)
	log.PanicIf(err)

	expected := []string{`Documents`, `notes.txt`}
	if reflect.DeepEqual(paths, expected) != true {
		t.Fatalf("Paths not correct: %v", paths)
	}
}

func TestWalk_VisitorError(t *testing.T) {
	mv := getTestVolume()

	errStop := errors.New("stop")
	visits := 0

	cb := func(pathParts []string, de DirectoryEntry) (err error) {
		visits++
		return errStop
	}

	err := Walk(mv, volume.RootRecordNumber, cb)
	if errors.Is(err, errStop) != true {
		t.Fatalf("Error not correct: [%v]", err)
	} else if visits != 1 {
		t.Fatalf("Walk did not stop at the first error: (%d)", visits)
	}
}
