package ntfsnav

import (
	"fmt"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// DefaultRootName is how the volume root is displayed unless told
	// otherwise.
	DefaultRootName = "C:"
)

var (
	navigatorLogger = log.NewLogger("ntfsnav.navigator")
)

type navigationFrame struct {
	rn   volume.RecordNumber
	name string
}

// Navigator is one navigation session: the stack of directories from the
// root down to the current directory, plus its display path. The root is
// always at the bottom of the stack and is never popped.
type Navigator struct {
	vol      volume.Volume
	rootName string

	stack       []navigationFrame
	currentPath string
}

// NewNavigator returns a session positioned at the root of `vol`.
func NewNavigator(vol volume.Volume, rootName string) *Navigator {
	if rootName == "" {
		rootName = DefaultRootName
	}

	nav := &Navigator{
		vol:      vol,
		rootName: rootName,
	}

	nav.ResetToRoot()

	return nav
}

// Volume returns the volume the session navigates.
func (nav *Navigator) Volume() volume.Volume {
	return nav.vol
}

// RootPath returns the display form of the root (e.g. "C:\").
func (nav *Navigator) RootPath() string {
	return nav.rootName + PathSeparator
}

// Push descends into the given directory.
func (nav *Navigator) Push(rn volume.RecordNumber, name string) {
	nav.stack = append(nav.stack, navigationFrame{rn: rn, name: name})
	nav.currentPath += name + PathSeparator

	navigatorLogger.Debugf(nil, "Pushed [%s] (%d): [%s]", name, rn, nav.currentPath)
}

// Pop ascends one level. At the root this does nothing and returns false.
func (nav *Navigator) Pop() (popped bool) {
	if len(nav.stack) <= 1 {
		return false
	}

	top := nav.stack[len(nav.stack)-1]

	nav.stack = nav.stack[:len(nav.stack)-1]
	nav.currentPath = nav.currentPath[:len(nav.currentPath)-len(top.name)-len(PathSeparator)]

	navigatorLogger.Debugf(nil, "Popped [%s] (%d): [%s]", top.name, top.rn, nav.currentPath)

	return true
}

// ResetToRoot returns the session to the root directory.
func (nav *Navigator) ResetToRoot() {
	nav.stack = []navigationFrame{
		{rn: volume.RootRecordNumber},
	}

	nav.currentPath = nav.RootPath()
}

// Current returns the record number of the current directory.
func (nav *Navigator) Current() volume.RecordNumber {
	return nav.stack[len(nav.stack)-1].rn
}

// CurrentPath returns the display path of the current directory. It always
// ends with a separator.
func (nav *Navigator) CurrentPath() string {
	return nav.currentPath
}

// Depth returns the number of directories on the stack, including the root.
func (nav *Navigator) Depth() int {
	return len(nav.stack)
}

// Stack returns the record numbers from the root down to the current
// directory.
func (nav *Navigator) Stack() []volume.RecordNumber {
	records := make([]volume.RecordNumber, len(nav.stack))
	for i, frame := range nav.stack {
		records[i] = frame.rn
	}

	return records
}

// Clone returns an independent session at the same position.
func (nav *Navigator) Clone() *Navigator {
	stack := make([]navigationFrame, len(nav.stack))
	copy(stack, nav.stack)

	return &Navigator{
		vol:         nav.vol,
		rootName:    nav.rootName,
		stack:       stack,
		currentPath: nav.currentPath,
	}
}

func (nav *Navigator) String() string {
	return fmt.Sprintf("Navigator<DEPTH=(%d) CURRENT=(%d) PATH=[%s]>", nav.Depth(), nav.Current(), nav.currentPath)
}
