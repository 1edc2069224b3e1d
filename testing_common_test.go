package ntfsnav

import (
	"strings"
	"testing"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/memvolume"
	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	testNotesRecordNumber  = volume.RecordNumber(255)
	testJosephRecordNumber = volume.RecordNumber(300)
	testUsersRecordNumber  = volume.RecordNumber(200)

	testNotesData = "hello world, this is the default stream of notes.txt"
	testZoneData  = "[ZoneTransfer]\r\nZoneId=3\r\n"

	testManifest = `
root:
  - name: Users
    record: 200
    children:
      - name: joseph
        record: 300
        children:
          - name: notes.txt
            record: 255
            data: "hello world, this is the default stream of notes.txt"
            streams:
              Zone.Identifier: "[ZoneTransfer]\r\nZoneId=3\r\n"
          - name: Documents
            directory: true
      - name: Public
        directory: true
  - name: Windows
    children:
      - name: System32
        directory: true
      - name: win.ini
        data: "; for 16-bit app support"
  - name: pagefile.sys
    data: swap
`
)

func getTestVolume() *memvolume.MemoryVolume {
	mv, err := memvolume.LoadManifest(strings.NewReader(testManifest))
	log.PanicIf(err)

	return mv
}

func getTestNavigator() (mv *memvolume.MemoryVolume, nav *Navigator) {
	mv = getTestVolume()
	nav = NewNavigator(mv, "")

	return mv, nav
}

// checkNavigatorInvariants asserts that the root is at the bottom of the
// stack and that the display path has one component per pushed directory.
func checkNavigatorInvariants(t *testing.T, nav *Navigator) {
	t.Helper()

	stack := nav.Stack()
	if len(stack) == 0 {
		t.Fatalf("Stack is empty.")
	} else if stack[0] != volume.RootRecordNumber {
		t.Fatalf("Root not at the bottom of the stack: (%d)", stack[0])
	}

	currentPath := nav.CurrentPath()
	if strings.HasPrefix(currentPath, nav.RootPath()) == false {
		t.Fatalf("Path does not start at the root: [%s]", currentPath)
	}

	relative := strings.TrimSuffix(currentPath[len(nav.RootPath()):], PathSeparator)

	components := 0
	if relative != "" {
		components = len(strings.Split(relative, PathSeparator))
	}

	if components != nav.Depth()-1 {
		t.Fatalf("Path [%s] has (%d) components but the depth is (%d).", currentPath, components, nav.Depth())
	}
}
