// Package trace implements the line-oriented trace reader behind
// interfaces.Source: each line is
// `0x<hex address> <READ|WRITE|P_MEM_WR|P_LOCK_WR|...> <arrival_cycle>`,
// with writes identified by the literal token WRITE or any token ending
// in _WR.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehrlich-b/dramsim/internal/interfaces"
)

// Reader implements interfaces.Source over a line-oriented trace stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r as a trace Source.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next (address, is_write, arrival_cycle) tuple.
func (r *Reader) Next() (address uint64, isWrite bool, arrivalCycle int64, ok bool, err error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return 0, false, 0, false, fmt.Errorf("trace: line %d: expected 3 fields, got %d", r.line, len(fields))
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
		if err != nil {
			return 0, false, 0, false, fmt.Errorf("trace: line %d: bad address %q: %w", r.line, fields[0], err)
		}
		cycle, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return 0, false, 0, false, fmt.Errorf("trace: line %d: bad arrival cycle %q: %w", r.line, fields[2], err)
		}
		op := strings.ToUpper(fields[1])
		write := op == "WRITE" || strings.HasSuffix(op, "_WR")
		return addr, write, cycle, true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return 0, false, 0, false, fmt.Errorf("trace: scan: %w", err)
	}
	return 0, false, 0, false, nil
}

var _ interfaces.Source = (*Reader)(nil)
