package ntfsnav

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrMissingDataStream is returned when the requested named stream does
	// not exist on the file. It is not fatal: nothing is written.
	ErrMissingDataStream = errors.New("file has no such data stream")
)

// ComponentNotFoundError is returned when a path component is absent from
// the current directory. The navigator is left at `ResolvedPrefix`.
type ComponentNotFoundError struct {
	Component      string
	ResolvedPrefix string
}

func (cnfe *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("cannot find \"%s\"; stopped at [%s]", cnfe.Component, cnfe.ResolvedPrefix)
}

// NotADirectoryError is returned when a file is used as an intermediate
// path component.
type NotADirectoryError struct {
	Component      string
	ResolvedPrefix string
}

func (nade *NotADirectoryError) Error() string {
	return fmt.Sprintf("\"%s\" is not a directory; stopped at [%s]", nade.Component, nade.ResolvedPrefix)
}

// NotAFileError is returned when a file was required but the path named a
// directory.
type NotAFileError struct {
	Path string
}

func (nafe *NotAFileError) Error() string {
	return fmt.Sprintf("\"%s\" is a directory, not a file", nafe.Path)
}

// RecordNumberParseError is returned for a malformed `/<number>` argument.
type RecordNumberParseError struct {
	Text string
	Err  error
}

func (rnpe *RecordNumberParseError) Error() string {
	return fmt.Sprintf("cannot parse record number argument \"%s\": %v", rnpe.Text, rnpe.Err)
}

func (rnpe *RecordNumberParseError) Unwrap() error {
	return rnpe.Err
}

// OutputExistsError is returned when the extraction destination is already
// there. The existing file is never touched.
type OutputExistsError struct {
	Path string
}

func (oee *OutputExistsError) Error() string {
	return fmt.Sprintf("output file already exists: [%s]", oee.Path)
}

// Is allows the error to match os.ErrExist.
func (oee *OutputExistsError) Is(target error) bool {
	return target == os.ErrExist
}
