package volume

import (
	"errors"
	"fmt"
)

// DeviceIoError is raised when the underlying byte-range reader fails. It is
// fatal for whatever operation triggered it.
type DeviceIoError struct {
	Op  string
	Err error
}

func (die *DeviceIoError) Error() string {
	return fmt.Sprintf("device I/O failed during %s: %v", die.Op, die.Err)
}

func (die *DeviceIoError) Unwrap() error {
	return die.Err
}

// NewDeviceIoError wraps `err` as a device failure unless it already is (or
// wraps) one.
func NewDeviceIoError(op string, err error) error {
	var die *DeviceIoError
	if errors.As(err, &die) == true {
		return err
	}

	return &DeviceIoError{
		Op:  op,
		Err: err,
	}
}
