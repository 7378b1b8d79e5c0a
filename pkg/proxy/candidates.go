package proxy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadCandidates merges the inline list with the entries of file (one
// per line, # starts a comment). Duplicates are dropped, order is kept.
func LoadCandidates(inline []string, file string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(entry string) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return
		}
		if _, dup := seen[entry]; dup {
			return
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}

	for _, entry := range inline {
		add(entry)
	}

	if file == "" {
		return out, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy list: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy list: %w", err)
	}

	return out, nil
}
