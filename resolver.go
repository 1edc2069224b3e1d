package ntfsnav

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/volume"
)

const (
	// RecordNumberMarker prefixes a path that addresses a record directly
	// (e.g. "/255" or "/0xff").
	RecordNumberMarker = "/"

	parentComponent  = ".."
	currentComponent = "."
)

var (
	resolverLogger = log.NewLogger("ntfsnav.resolver")
)

// ResolutionKind says what a successful resolution landed on.
type ResolutionKind int

const (
	// ResolvedDirectory means the navigator is now at the target directory
	// (or, for record addressing, that the record is a directory).
	ResolvedDirectory ResolutionKind = iota

	// ResolvedFile means the last component named a file. The file is not
	// pushed; the navigator stays at its parent.
	ResolvedFile
)

func (rk ResolutionKind) String() string {
	switch rk {
	case ResolvedDirectory:
		return "Directory"
	case ResolvedFile:
		return "File"
	}

	return fmt.Sprintf("ResolutionKind(%d)", int(rk))
}

// Resolution is the outcome of a successful resolve.
type Resolution struct {
	Kind ResolutionKind

	// Name is the target name: the last component as given, or the decimal
	// record number for record addressing. Empty when nothing was consumed.
	Name string

	RecordNumber volume.RecordNumber

	// ByRecordNumber is true if the directory stack was bypassed.
	ByRecordNumber bool
}

func (res Resolution) String() string {
	return fmt.Sprintf("Resolution<KIND=[%s] NAME=[%s] RECORD=(%d) BY-RECORD=[%v]>", res.Kind, res.Name, res.RecordNumber, res.ByRecordNumber)
}

// IsRecordNumberPath indicates whether the path addresses a record directly.
func IsRecordNumberPath(path string) bool {
	return strings.HasPrefix(path, RecordNumberMarker)
}

// ParseRecordNumber parses decimal or "0x"-prefixed hexadecimal text (the
// part after the record-number marker).
func ParseRecordNumber(text string) (rn volume.RecordNumber, err error) {
	var value uint64

	if strings.HasPrefix(text, "0x") == true || strings.HasPrefix(text, "0X") == true {
		value, err = strconv.ParseUint(text[2:], 16, 64)
	} else {
		value, err = strconv.ParseUint(text, 10, 64)
	}

	if err != nil {
		return 0, &RecordNumberParseError{Text: text, Err: err}
	}

	return volume.RecordNumber(value), nil
}

func splitComponents(path string) (components []string) {
	parts := strings.Split(path, PathSeparator)

	components = make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == currentComponent {
			continue
		}

		components = append(components, part)
	}

	return components
}

// Resolve consumes `path` against the session one component at a time.
//
// ".." ascends (never past the root). Any other component is looked up in
// the current directory: directories are pushed, and a file is accepted
// only as the last component, in which case the stack is left at its
// parent. On failure the stack stays where the last good component left it.
// A leading separator starts from the root. A path beginning with the
// record-number marker is fetched directly and does not touch the stack.
func (nav *Navigator) Resolve(path string) (res Resolution, err error) {
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

	if IsRecordNumberPath(path) == true {
		return nav.resolveRecordNumber(path[len(RecordNumberMarker):])
	}

	if strings.HasPrefix(path, PathSeparator) == true {
		nav.ResetToRoot()
	}

	components := splitComponents(path)

	res = Resolution{
		Kind:         ResolvedDirectory,
		RecordNumber: nav.Current(),
	}

	for i, component := range components {
		isLast := i == len(components)-1

		if component == parentComponent {
			nav.Pop()

			res.Name = component
			res.RecordNumber = nav.Current()

			continue
		}

		de, found, err := LookupChild(nav.vol, nav.Current(), component)
		log.PanicIf(err)

		if found == false {
			resolverLogger.Debugf(nil, "Component [%s] not found under [%s].", component, nav.currentPath)

			return res, &ComponentNotFoundError{
				Component:      component,
				ResolvedPrefix: nav.currentPath,
			}
		}

		if de.IsDirectory == false {
			if isLast == false {
				return res, &NotADirectoryError{
					Component:      component,
					ResolvedPrefix: nav.currentPath,
				}
			}

			res = Resolution{
				Kind:         ResolvedFile,
				Name:         component,
				RecordNumber: de.RecordNumber,
			}

			return res, nil
		}

		nav.Push(de.RecordNumber, de.Name)

		res.Name = component
		res.RecordNumber = de.RecordNumber
	}

	return res, nil
}

func (nav *Navigator) resolveRecordNumber(text string) (res Resolution, err error) {
	rn, err := ParseRecordNumber(text)
	if err != nil {
		return res, err
	}

	f, err := nav.vol.File(rn)
	if err != nil {
		return res, log.Wrap(err)
	}

	kind := ResolvedFile
	if f.IsDirectory() == true {
		kind = ResolvedDirectory
	}

	res = Resolution{
		Kind:           kind,
		Name:           rn.String(),
		RecordNumber:   rn,
		ByRecordNumber: true,
	}

	return res, nil
}

// ResolveFile resolves `path` and requires that it names a file.
func (nav *Navigator) ResolveFile(path string) (res Resolution, err error) {
	res, err = nav.Resolve(path)
	if err != nil {
		return res, err
	}

	if res.Kind != ResolvedFile {
		return res, &NotAFileError{Path: path}
	}

	return res, nil
}
