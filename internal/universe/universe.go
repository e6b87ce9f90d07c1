// Package universe loads and validates the eligible ticker universe.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// codeColumn is the CSV header column holding ticker symbols.
const codeColumn = "code"

// Universe is the static list of tickers eligible for screening.
type Universe struct {
	symbols []string
	index   map[string]struct{}
}

// Load reads the ticker universe from a CSV file with a header row
// containing a "code" column. An empty universe is an error.
func Load(path string) (*Universe, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a user-provided universe file
	if err != nil {
		return nil, fmt.Errorf("opening universe file: %w", err)
	}
	defer func() { _ = f.Close() }()

	u, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading universe file %s: %w", path, err)
	}
	return u, nil
}

// Read parses a universe CSV from the given reader.
func Read(r io.Reader) (*Universe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	codeIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), codeColumn) {
			codeIdx = i
			break
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("universe CSV missing %q column", codeColumn)
	}

	u := &Universe{index: make(map[string]struct{})}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if codeIdx >= len(record) {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[codeIdx]))
		if symbol == "" {
			continue
		}
		if _, dup := u.index[symbol]; dup {
			continue
		}
		u.index[symbol] = struct{}{}
		u.symbols = append(u.symbols, symbol)
	}

	if len(u.symbols) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}
	return u, nil
}

// New builds a universe from an explicit symbol list. Useful in tests.
func New(symbols []string) *Universe {
	u := &Universe{index: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" {
			continue
		}
		if _, dup := u.index[symbol]; dup {
			continue
		}
		u.index[symbol] = struct{}{}
		u.symbols = append(u.symbols, symbol)
	}
	return u
}

// Contains reports whether the symbol is in the universe.
func (u *Universe) Contains(symbol string) bool {
	_, ok := u.index[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Prefix returns the first n symbols in file order. n <= 0 or beyond the
// universe size returns all symbols.
func (u *Universe) Prefix(n int) []string {
	if n <= 0 || n > len(u.symbols) {
		n = len(u.symbols)
	}
	out := make([]string, n)
	copy(out, u.symbols[:n])
	return out
}

// Len returns the number of symbols in the universe.
func (u *Universe) Len() int {
	return len(u.symbols)
}
