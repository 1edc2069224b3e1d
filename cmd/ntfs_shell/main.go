package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfsnav"
)

type rootParameters struct {
	FilesystemFilepath string `short:"f" long:"filesystem" description:"File-path of the NTFS device or image"`
	Partition          int    `long:"partition" description:"One-based partition number within a whole-disk image"`
	Offset             int64  `long:"offset" description:"Byte offset of the filesystem within the device or image"`
	ManifestFilepath   string `long:"manifest" description:"File-path of a YAML volume description to use instead of a device"`
	RootName           string `long:"root-name" description:"Name the root directory is shown as" default:"C:"`
	OutputDirectory    string `short:"o" long:"output-directory" description:"Directory that \"get\" writes into" default:"."`
}

var (
	rootArguments = new(rootParameters)
)

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

	err = os.MkdirAll(rootArguments.OutputDirectory, 0755)
	log.PanicIf(err)

	nav := ntfsnav.NewNavigator(vol, rootArguments.RootName)
	ex := ntfsnav.NewExtractor(vol)

	sh := ntfsnav.NewShell(nav, ex, rootArguments.OutputDirectory, os.Stdout)

	s := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(sh.Prompt())

		if s.Scan() == false {
			fmt.Println()
			break
		}

		err := sh.Execute(s.Text())
		if err == ntfsnav.ErrExit {
			break
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
	}

	err = s.Err()
	log.PanicIf(err)
}
