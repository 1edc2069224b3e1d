package ntfsnav

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
)

var (
	// ErrExit is returned by Execute when the user asks to leave.
	ErrExit = errors.New("exit requested")
)

var (
	shellLogger = log.NewLogger("ntfsnav.shell")
)

// Shell runs interactive commands against one navigation session.
type Shell struct {
	nav             *Navigator
	ex              *Extractor
	outputDirectory string
	w               io.Writer
}

// NewShell returns a shell that prints to `w` and extracts into
// `outputDirectory`.
func NewShell(nav *Navigator, ex *Extractor, outputDirectory string, w io.Writer) *Shell {
	if outputDirectory == "" {
		outputDirectory = "."
	}

	return &Shell{
		nav:             nav,
		ex:              ex,
		outputDirectory: outputDirectory,
		w:               w,
	}
}

// Prompt returns the prompt text for the current directory.
func (sh *Shell) Prompt() string {
	return sh.nav.CurrentPath() + "> "
}

// Execute runs one command line. Unknown commands and failed commands
// return an error; the session stays usable either way.
func (sh *Shell) Execute(line string) (err error) {
	line = strings.TrimSpace(strings.TrimRight(line, "\r\n"))
	if line == "" {
		return nil
	}

	command := line
	argument := ""

	if i := strings.IndexAny(line, " \t"); i >= 0 {
		command = line[:i]
		argument = strings.TrimSpace(line[i+1:])
	}

	shellLogger.Debugf(nil, "Command [%s] argument [%s].", command, argument)

	switch strings.ToLower(command) {
	case "cd":
		return sh.cd(argument)
	case "cdroot":
		sh.nav.ResetToRoot()
		return nil
	case "pwd":
		fmt.Fprintln(sh.w, sh.nav.CurrentPath())
		return nil
	case "ls", "dir":
		return sh.ls(argument == "-l")
	case "get":
		return sh.get(argument)
	case "help", "?":
		sh.help()
		return nil
	case "exit", "quit":
		// The session ends at the root.
		sh.nav.ResetToRoot()

		return ErrExit
	}

	return fmt.Errorf("unknown command \"%s\" (try \"help\")", command)
}

func (sh *Shell) cd(argument string) (err error) {
	res, err := sh.nav.Resolve(argument)
	if err != nil {
		return err
	}

	if res.ByRecordNumber == true && res.Kind == ResolvedDirectory {
		fmt.Fprintf(sh.w, "Record %d is a directory; the record-number form does not change directory.\n", res.RecordNumber)
	} else if res.Kind == ResolvedFile {
		fmt.Fprintf(sh.w, "\"%s\" is a file (record %d). Use \"get\" to extract it.\n", res.Name, res.RecordNumber)
	}

	return nil
}

func (sh *Shell) ls(detail bool) (err error) {
	entries, err := ListDirectory(sh.nav.Volume(), sh.nav.Current())
	if err != nil {
		return err
	}

	for _, de := range entries {
		prefix := ""
		if de.IsDirectory == true {
			prefix = "<DIR>"
		}

		if detail == false {
			fmt.Fprintf(sh.w, "%-5s  %s\n", prefix, de.Name)
			continue
		}

		size := ""
		if de.IsDirectory == false {
			length, err := defaultStreamLength(sh.nav, de)
			if err != nil {
				return err
			}

			size = humanize.Comma(length)
		}

		fmt.Fprintf(sh.w, "%-5s %15s %10d  %s\n", prefix, size, de.RecordNumber, de.Name)
	}

	return nil
}

func defaultStreamLength(nav *Navigator, de DirectoryEntry) (length int64, err error) {
	f, err := de.Open(nav.Volume())
	if err != nil {
		return 0, err
	}

	s, found, err := f.Data("")
	if err != nil {
		return 0, log.Wrap(err)
	} else if found == false {
		return 0, nil
	}

	return s.Len(), nil
}

// get resolves on a copy of the session so that a path-qualified target
// does not move the shell's current directory.
func (sh *Shell) get(argument string) (err error) {
	if argument == "" {
		return errors.New("missing argument")
	}

	_, er, err := extractPath(sh.nav.Clone(), sh.ex, argument, sh.outputDirectory)
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.w, "Saved %s bytes in \"%s\".\n", humanize.Comma(er.Written), er.OutputFilepath)

	return nil
}

func (sh *Shell) help() {
	fmt.Fprintln(sh.w, `Commands:
  cd <path>      change directory (".." ascends, a leading "\" starts at the root)
  cdroot         return to the root
  pwd            print the current directory
  ls [-l]        list the current directory
  get <target>   extract "<path>[:stream]" or "/<record>[:stream]"
  exit           leave`)
}
