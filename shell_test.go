package ntfsnav

import (
	"bytes"
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/dsoprea/go-logging"
)

func getTestShell(t *testing.T) (nav *Navigator, sh *Shell, b *bytes.Buffer, outputPath string) {
	mv, nav := getTestNavigator()

	b = new(bytes.Buffer)
	outputPath = t.TempDir()

	sh = NewShell(nav, NewExtractor(mv), outputPath, b)

	return nav, sh, b, outputPath
}

func TestShell_Cd(t *testing.T) {
	nav, sh, _, _ := getTestShell(t)

	err := sh.Execute(`cd Users\joseph`)
	log.PanicIf(err)

	if sh.Prompt() != `C:\Users\joseph\> ` {
		t.Fatalf("Prompt not correct: [%s]", sh.Prompt())
	}

	err = sh.Execute("cd ..")
	log.PanicIf(err)

	if nav.CurrentPath() != `C:\Users\` {
		t.Fatalf("Path not correct: [%s]", nav.CurrentPath())
	}

	err = sh.Execute("cdroot")
	log.PanicIf(err)

	if nav.Depth() != 1 {
		t.Fatalf("Not at the root: (%d)", nav.Depth())
	}
}

func TestShell_Cd_Missing(t *testing.T) {
	nav, sh, _, _ := getTestShell(t)

	err := sh.Execute(`cd Users\nobody`)

	var cnfe *ComponentNotFoundError
	if errors.As(err, &cnfe) != true {
		t.Fatalf("Error not correct: [%v]", err)
	}

	// The session is still usable and sits at the valid prefix.
	if nav.CurrentPath() != `C:\Users\` {
		t.Fatalf("Path not correct: [%s]", nav.CurrentPath())
	}

	err = sh.Execute("pwd")
	log.PanicIf(err)
}

func TestShell_Cd_File(t *testing.T) {
	nav, sh, b, _ := getTestShell(t)

	err := sh.Execute(`cd Windows\win.ini`)
	log.PanicIf(err)

	if strings.Contains(b.String(), "is a file") != true {
		t.Fatalf("Output not correct: [%s]", b.String())
	} else if nav.CurrentPath() != `C:\Windows\` {
		t.Fatalf("Path not correct: [%s]", nav.CurrentPath())
	}
}

func TestShell_Pwd(t *testing.T) {
	_, sh, b, _ := getTestShell(t)

	err := sh.Execute("cd Windows")
	log.PanicIf(err)

	err = sh.Execute("pwd\r\n")
	log.PanicIf(err)

	if b.String() != "C:\\Windows\\\n" {
		t.Fatalf("Output not correct: [%s]", b.String())
	}
}

func TestShell_Ls(t *testing.T) {
	_, sh, b, _ := getTestShell(t)

	err := sh.Execute("ls")
	log.PanicIf(err)

	expected := "       pagefile.sys\n<DIR>  Users\n<DIR>  Windows\n"
	if b.String() != expected {
		t.Fatalf("Output not correct:\n%s", b.String())
	}
}

func TestShell_Ls_Detail(t *testing.T) {
	_, sh, b, _ := getTestShell(t)

	err := sh.Execute(`cd Users\joseph`)
	log.PanicIf(err)

	err = sh.Execute("dir -l")
	log.PanicIf(err)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Line count not correct: %v", lines)
	}

	if strings.HasPrefix(lines[0], "<DIR>") != true || strings.HasSuffix(lines[0], "  Documents") != true {
		t.Fatalf("Directory line not correct: [%s]", lines[0])
	}

	fields := strings.Fields(lines[1])
	if len(fields) != 3 || fields[0] != "52" || fields[1] != "255" || fields[2] != "notes.txt" {
		t.Fatalf("File line not correct: [%s]", lines[1])
	}
}

func TestShell_Get(t *testing.T) {
	nav, sh, b, outputPath := getTestShell(t)

	err := sh.Execute(`get Users\joseph\notes.txt:Zone.Identifier`)
	log.PanicIf(err)

	data, err := os.ReadFile(path.Join(outputPath, "notes.txt_Zone.Identifier"))
	log.PanicIf(err)

	if string(data) != testZoneData {
		t.Fatalf("Data not correct: [%s]", string(data))
	} else if strings.HasPrefix(b.String(), "Saved ") != true {
		t.Fatalf("Output not correct: [%s]", b.String())
	}

	// The shell's own directory did not move.
	if nav.Depth() != 1 {
		t.Fatalf("Session moved: [%s]", nav.CurrentPath())
	}

	err = sh.Execute("get /300")

	var nafe *NotAFileError
	if errors.As(err, &nafe) != true {
		t.Fatalf("Error not correct: [%v]", err)
	}

	err = sh.Execute("get")
	if err == nil {
		t.Fatalf("Expected failure without an argument.")
	}
}

func TestShell_Execute_Misc(t *testing.T) {
	_, sh, b, _ := getTestShell(t)

	err := sh.Execute("   ")
	log.PanicIf(err)

	err = sh.Execute("help")
	log.PanicIf(err)

	if strings.Contains(b.String(), "cdroot") != true {
		t.Fatalf("Help not printed: [%s]", b.String())
	}

	err = sh.Execute("frobnicate")
	if err == nil || strings.Contains(err.Error(), "unknown command") != true {
		t.Fatalf("Error not correct: [%v]", err)
	}

	err = sh.Execute("EXIT")
	if err != ErrExit {
		t.Fatalf("Expected exit: [%v]", err)
	}
}

func TestShell_Exit(t *testing.T) {
	nav, sh, _, _ := getTestShell(t)

	err := sh.Execute(`cd Users\joseph`)
	log.PanicIf(err)

	if nav.Depth() != 3 {
		t.Fatalf("Depth not correct before exit: (%d)", nav.Depth())
	}

	err = sh.Execute("exit")
	if err != ErrExit {
		t.Fatalf("Expected exit: [%v]", err)
	}

	if nav.Depth() != 1 {
		t.Fatalf("Session not reset to root: (%d)", nav.Depth())
	} else if nav.CurrentPath() != "C:\\" {
		t.Fatalf("Current path not correct: [%s]", nav.CurrentPath())
	}
}
