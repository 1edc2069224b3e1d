package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfsnav"
)

type rootParameters struct {
	FilesystemFilepath string `short:"f" long:"filesystem" description:"File-path of the NTFS device or image"`
	Partition          int    `long:"partition" description:"One-based partition number within a whole-disk image"`
	Offset             int64  `long:"offset" description:"Byte offset of the filesystem within the device or image"`
	ManifestFilepath   string `long:"manifest" description:"File-path of a YAML volume description to use instead of a device"`
	RootName           string `long:"root-name" description:"Name the root directory is shown as" default:"C:"`
	OutputDirectory    string `short:"o" long:"output-directory" description:"Directory to write into (created if missing)" default:"."`
	InputFilepath      string `short:"i" long:"input-file" description:"File with one path to extract per line"`
	ContinueOnError    bool   `long:"continue-on-error" description:"Keep going after a failed path"`

	Positional struct {
		Paths []string `positional-arg-name:"path"`
	} `positional-args:"yes"`
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
	p.Usage = "[OPTIONS] [path[:stream] | /record[:stream]]..."

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	jobs := make([]ntfsnav.Job, 0)

	for _, path := range rootArguments.Positional.Paths {
		jobs = append(jobs, ntfsnav.Job{Path: path})
	}

	if rootArguments.InputFilepath != "" {
		fileJobs, err := ntfsnav.ReadJobsFile(rootArguments.InputFilepath)
		log.PanicIf(err)

		jobs = append(jobs, fileJobs...)
	}

	if len(jobs) == 0 {
		fmt.Fprintf(os.Stderr, "Nothing to extract. Give paths or an input file.\n")
		p.WriteHelp(os.Stderr)
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
	ex := ntfsnav.NewExtractor(vol)

	policy := ntfsnav.AbortOnFailure
	if rootArguments.ContinueOnError == true {
		policy = ntfsnav.ContinueOnFailure
	}

	br := ntfsnav.NewBatchRunner(nav, ex, rootArguments.OutputDirectory, policy)

	results, err := br.Run(jobs)

	for _, jr := range results {
		if jr.Skipped() == true {
			fmt.Fprintf(os.Stderr, "Skipped [%s]: %s\n", jr.Job.Path, jr.Err)
		} else if jr.Failed() == true {
			fmt.Fprintf(os.Stderr, "Failed [%s]: %s\n", jr.Job.Path, jr.Err)
		} else {
			fmt.Printf("Saved %s bytes in \"%s\".\n", humanize.Comma(jr.Extraction.Written), jr.Extraction.OutputFilepath)
		}
	}

	var be *ntfsnav.BatchError
	if errors.As(err, &be) == true {
		fmt.Fprintf(os.Stderr, "(%d) of (%d) paths failed.\n", be.Failed, be.Total)

		closer.Close()
		os.Exit(2)
	}

	log.PanicIf(err)
}
