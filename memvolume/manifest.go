package memvolume

import (
	"io"
	"os"
	"reflect"

	"github.com/dsoprea/go-logging"
	"gopkg.in/yaml.v3"

	"github.com/dsoprea/go-ntfsnav/volume"
)

// ManifestNode describes one file or directory. A node with children, or
// with `directory` set, is a directory.
type ManifestNode struct {
	Name      string            `yaml:"name"`
	Record    uint64            `yaml:"record,omitempty"`
	Directory bool              `yaml:"directory,omitempty"`
	Data      string            `yaml:"data,omitempty"`
	Streams   map[string]string `yaml:"streams,omitempty"`
	Children  []ManifestNode    `yaml:"children,omitempty"`
}

// IsDirectory indicates whether the node describes a directory.
func (mn ManifestNode) IsDirectory() bool {
	return mn.Directory == true || len(mn.Children) > 0
}

// Manifest describes a whole volume. `Root` lists the children of the root
// directory.
type Manifest struct {
	Root []ManifestNode `yaml:"root"`
}

// LoadManifest builds a volume from a YAML manifest.
func LoadManifest(r io.Reader) (mv *MemoryVolume, err error) {
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

	m := new(Manifest)

	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	// An empty document is an empty volume.
	err = d.Decode(m)
	if err == io.EOF {
		err = nil
	}

	log.PanicIf(err)

	mv = NewMemoryVolume()

	for _, mn := range m.Root {
		err := mv.addManifestNode(volume.RootRecordNumber, mn)
		log.PanicIf(err)
	}

	return mv, nil
}

// LoadManifestFile builds a volume from the YAML manifest at the given path.
func LoadManifestFile(filepath string) (mv *MemoryVolume, err error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, log.Wrap(err)
	}

	defer f.Close()

	return LoadManifest(f)
}

func (mv *MemoryVolume) addManifestNode(parent volume.RecordNumber, mn ManifestNode) (err error) {
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

	if mn.Name == "" {
		log.Panicf("manifest node under record (%d) has no name", parent)
	}

	rn := volume.RecordNumber(mn.Record)

	if mn.IsDirectory() == true {
		rn, err = mv.AddDirectoryWithRecord(parent, rn, mn.Name)
		log.PanicIf(err)

		for _, child := range mn.Children {
			err := mv.addManifestNode(rn, child)
			log.PanicIf(err)
		}
	} else {
		rn, err = mv.AddFileWithRecord(parent, rn, mn.Name, []byte(mn.Data))
		log.PanicIf(err)
	}

	for streamName, data := range mn.Streams {
		err := mv.SetStream(rn, streamName, []byte(data))
		log.PanicIf(err)
	}

	return nil
}
