package tokens

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns one token per non-blank line of r, in order.
func Read(r io.Reader) ([]string, error) {
	toks := []string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		toks = append(toks, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}
	return toks, nil
}

func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tokens file: %w", err)
	}
	defer f.Close()

	return Read(f)
}
