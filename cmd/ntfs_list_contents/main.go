package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfsnav"
	"github.com/dsoprea/go-ntfsnav/volume"
)

type rootParameters struct {
	FilesystemFilepath string `short:"f" long:"filesystem" description:"File-path of the NTFS device or image"`
	Partition          int    `long:"partition" description:"One-based partition number within a whole-disk image"`
	Offset             int64  `long:"offset" description:"Byte offset of the filesystem within the device or image"`
	ManifestFilepath   string `long:"manifest" description:"File-path of a YAML volume description to use instead of a device"`
	RootName           string `long:"root-name" description:"Name the root directory is shown as" default:"C:"`
	FilenameFilter     string `short:"p" long:"pattern" description:"Filename filter"`
	ShowDetail         bool   `short:"d" long:"detail" description:"Show sizes and record numbers"`
	Recursive          bool   `short:"r" long:"recursive" description:"List everything below the directory"`

	Positional struct {
		Path string `positional-arg-name:"path"`
	} `positional-args:"yes"`
}

var (
	rootArguments = new(rootParameters)
)

func printEntry(vol volume.Volume, displayPath string, de ntfsnav.DirectoryEntry) {
	prefix := ""
	if de.IsDirectory == true {
		prefix = "<DIR>"
	}

	if rootArguments.ShowDetail == false {
		fmt.Printf("%-5s  %s\n", prefix, displayPath)
		return
	}

	size := ""
	if de.IsDirectory == false {
		f, err := de.Open(vol)
		log.PanicIf(err)

		s, found, err := f.Data("")
		log.PanicIf(err)

		if found == true {
			size = humanize.Comma(s.Len())
		}
	}

	fmt.Printf("%-5s %15s %10d  %s\n", prefix, size, de.RecordNumber, displayPath)
}

func isMatched(de ntfsnav.DirectoryEntry) bool {
	if rootArguments.FilenameFilter == "" {
		return true
	}

	// Match on the name alone since the paths use backslashes.
	isMatched, err := filepath.Match(rootArguments.FilenameFilter, de.Name)
	log.PanicIf(err)

	return isMatched
}

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	vs := ntfsnav.VolumeSource{
		FilesystemFilepath: rootArguments.FilesystemFilepath,
		Partition:          rootArguments.Partition,
		Offset:             rootArguments.Offset,
		ManifestFilepath:   rootArguments.ManifestFilepath,
	}

	vol, closer, err := ntfsnav.OpenVolume(vs)
	if err == ntfsnav.ErrNoVolumeSource || err == ntfsnav.ErrAmbiguousVolumeSource {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	log.PanicIf(err)

	defer closer.Close()

	nav := ntfsnav.NewNavigator(vol, rootArguments.RootName)

	res, err := nav.Resolve(rootArguments.Positional.Path)
	if err != nil {
		var cnfe *ntfsnav.ComponentNotFoundError
		var nade *ntfsnav.NotADirectoryError
		var rnpe *ntfsnav.RecordNumberParseError

		if errors.As(err, &cnfe) == true || errors.As(err, &nade) == true || errors.As(err, &rnpe) == true {
			fmt.Fprintf(os.Stderr, "%s\n", err)

			closer.Close()
			os.Exit(2)
		}

		log.PanicIf(err)
	}

	if res.Kind != ntfsnav.ResolvedDirectory {
		fmt.Fprintf(os.Stderr, "\"%s\" is a file.\n", rootArguments.Positional.Path)

		closer.Close()
		os.Exit(2)
	}

	// A record-number path does not move the navigator.
	directory := res.RecordNumber

	if rootArguments.Recursive == false {
		entries, err := ntfsnav.ListDirectory(vol, directory)
		log.PanicIf(err)

		for _, de := range entries {
			if isMatched(de) == false {
				continue
			}

			printEntry(vol, de.Name, de)
		}

		return
	}

	paths, entries, err := ntfsnav.List(vol, directory)
	log.PanicIf(err)

	for _, currentPath := range paths {
		de := entries[currentPath]

		if isMatched(de) == false {
			continue
		}

		printEntry(vol, currentPath, de)
	}
}
