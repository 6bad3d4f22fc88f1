package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ParseList reads a plain line-oriented token list: one token per
// line, ID assigned by 1-based line position. Lines are kept verbatim;
// reordering a list invalidates previously saved numeric mappings.
func ParseList(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}
	return tokens, nil
}

// LoadFile imports a token list file as a dictionary of the given kind.
func LoadFile(kind Kind, path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s list: %w", kind, err)
	}
	defer f.Close()

	tokens, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s list %s: %w", kind, path, err)
	}
	return New(kind, tokens), nil
}
