package ntfsnav

import (
	"errors"
	"io"

	"github.com/dsoprea/go-logging"

	"github.com/dsoprea/go-ntfsnav/memvolume"
	"github.com/dsoprea/go-ntfsnav/ntfsvolume"
	"github.com/dsoprea/go-ntfsnav/volume"
)

var (
	// ErrNoVolumeSource is returned when neither a device nor a manifest was
	// given.
	ErrNoVolumeSource = errors.New("no filesystem or manifest given")

	// ErrAmbiguousVolumeSource is returned when both were given.
	ErrAmbiguousVolumeSource = errors.New("give either a filesystem or a manifest, not both")
)

// VolumeSource says where the tools read the volume from.
type VolumeSource struct {
	// FilesystemFilepath is a raw device or an image file.
	FilesystemFilepath string

	// Partition is the one-based partition holding the filesystem in a
	// whole-disk image. Zero means the image is the filesystem itself.
	Partition int

	// Offset is the byte offset of the filesystem when Partition is zero.
	Offset int64

	// ManifestFilepath is a YAML volume description used instead of a
	// device.
	ManifestFilepath string
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// OpenVolume opens the volume described by `vs`. The closer must be closed
// once the volume is no longer used.
func OpenVolume(vs VolumeSource) (vol volume.Volume, closer io.Closer, err error) {
	if vs.FilesystemFilepath == "" && vs.ManifestFilepath == "" {
		return nil, nil, ErrNoVolumeSource
	} else if vs.FilesystemFilepath != "" && vs.ManifestFilepath != "" {
		return nil, nil, ErrAmbiguousVolumeSource
	}

	if vs.ManifestFilepath != "" {
		mv, err := memvolume.LoadManifestFile(vs.ManifestFilepath)
		if err != nil {
			return nil, nil, log.Wrap(err)
		}

		return mv, nopCloser{}, nil
	}

	oo := ntfsvolume.OpenOptions{
		Offset:    vs.Offset,
		Partition: vs.Partition,
	}

	nv, err := ntfsvolume.Open(vs.FilesystemFilepath, oo)
	if err != nil {
		return nil, nil, log.Wrap(err)
	}

	return nv, nv, nil
}
