package volume

import (
	"reflect"
	"unicode"
	"unicode/utf16"

	"encoding/binary"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

const (
	// UpcaseTableEntryCount is the number of UTF-16 code units the table
	// maps (the whole BMP).
	UpcaseTableEntryCount = 65536

	// UpcaseTableSize is the on-disk size of the `$UpCase` data stream.
	UpcaseTableSize = UpcaseTableEntryCount * 2
)

var (
	defaultEncoding = binary.LittleEndian
)

// UpcaseTable maps every UTF-16 code unit to its upper-case form. Names are
// compared after mapping both sides (case-insensitive, case-preserving).
type UpcaseTable []uint16

type upcaseTableRaw struct {
	Entries [UpcaseTableEntryCount]uint16
}

// ParseUpcaseTable decodes the raw `$UpCase` stream.
func ParseUpcaseTable(raw []byte) (ut UpcaseTable, err error) {
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

	if len(raw) < UpcaseTableSize {
		log.Panicf("upcase table too short: (%d) < (%d)", len(raw), UpcaseTableSize)
	}

	utr := new(upcaseTableRaw)

	err = restruct.Unpack(raw[:UpcaseTableSize], defaultEncoding, utr)
	log.PanicIf(err)

	ut = make(UpcaseTable, UpcaseTableEntryCount)
	copy(ut, utr.Entries[:])

	return ut, nil
}

// NewDefaultUpcaseTable builds a table from the Unicode simple upper-case
// mapping. Used by volumes that do not carry their own table.
func NewDefaultUpcaseTable() UpcaseTable {
	ut := make(UpcaseTable, UpcaseTableEntryCount)

	for i := 0; i < UpcaseTableEntryCount; i++ {
		r := rune(i)

		// Surrogate halves are never mapped.
		if utf16.IsSurrogate(r) == true {
			ut[i] = uint16(i)
			continue
		}

		upper := unicode.ToUpper(r)
		if upper > 0xffff {
			upper = r
		}

		ut[i] = uint16(upper)
	}

	return ut
}

func (ut UpcaseTable) upcaseUnits(s string) []uint16 {
	units := utf16.Encode([]rune(s))
	for i, u := range units {
		units[i] = ut[u]
	}

	return units
}

// Upcase returns the normalized form of the name.
func (ut UpcaseTable) Upcase(s string) string {
	return string(utf16.Decode(ut.upcaseUnits(s)))
}

// Compare orders two names the way the directory index collates them.
func (ut UpcaseTable) Compare(a, b string) int {
	ua := ut.upcaseUnits(a)
	ub := ut.upcaseUnits(b)

	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] < ub[i] {
			return -1
		} else if ua[i] > ub[i] {
			return 1
		}
	}

	if len(ua) < len(ub) {
		return -1
	} else if len(ua) > len(ub) {
		return 1
	}

	return 0
}

// Equal indicates whether the names are the same file name on the volume.
func (ut UpcaseTable) Equal(a, b string) bool {
	return ut.Compare(a, b) == 0
}
