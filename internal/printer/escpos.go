package printer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	esc = 0x1b
	gs  = 0x1d

	ruleWidth = 16
	// numberSize is GS ! with 4x width and 4x height.
	numberSize = 0x33
)

type codepage struct {
	charmap  *charmap.Charmap
	selector byte
}

// codepages maps config names to the charmap and the ESC t table number
// used by Epson-compatible printers.
var codepages = map[string]codepage{
	"cp437":        {charmap: charmap.CodePage437, selector: 0},
	"cp850":        {charmap: charmap.CodePage850, selector: 2},
	"cp858":        {charmap: charmap.CodePage858, selector: 19},
	"windows-1252": {charmap: charmap.Windows1252, selector: 16},
}

// Layout controls the static parts of a ticket.
type Layout struct {
	Header    string
	Codepage  string
	Timestamp bool
}

// Render produces the ESC/POS byte stream for one ticket: centred header, a
// rule, the number at 4x4 size, an optional issue time, then a partial cut.
func Render(number int, issuedAt time.Time, layout Layout) ([]byte, error) {
	cp, ok := codepages[strings.ToLower(layout.Codepage)]
	if !ok {
		return nil, fmt.Errorf("unsupported codepage %q", layout.Codepage)
	}
	encoder := encoding.ReplaceUnsupported(cp.charmap.NewEncoder())
	header, err := encoder.String(layout.Header)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.Write([]byte{esc, '@'})
	buf.Write([]byte{esc, 't', cp.selector})
	buf.WriteByte('\n')
	buf.Write([]byte{esc, 'a', 1})
	buf.WriteString(header)
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("-", ruleWidth))
	buf.WriteByte('\n')
	buf.Write([]byte{gs, '!', numberSize})
	buf.WriteString(strconv.Itoa(number))
	buf.WriteByte('\n')
	buf.Write([]byte{gs, '!', 0})
	if layout.Timestamp && !issuedAt.IsZero() {
		buf.WriteByte('\n')
		buf.WriteString(issuedAt.Format("2006-01-02 15:04:05"))
		buf.WriteByte('\n')
	}
	buf.Write([]byte{esc, 'd', 4})
	buf.Write([]byte{gs, 'V', 1})
	return buf.Bytes(), nil
}
