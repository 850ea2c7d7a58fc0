package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeWriteFile writes data to a temp file in the same directory and
// atomically renames it into place, creating parent directories as needed.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// OutputPath derives a report path for input inside outDir as
// "<input base>.findings<ext>", so sales.csv and sales.json do not collide.
// An empty outDir keeps the report next to the input.
func OutputPath(input, outDir, ext string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, filepath.Base(input)+".findings"+ext)
}

// UniqueOutputPaths maps each input to OutputPath, adding a "__N" suffix
// before ".findings" when two inputs would land on the same report, e.g.
// d1/sales.csv and d2/sales.csv written to one outDir.
func UniqueOutputPaths(inputs []string, outDir, ext string) []string {
	out := make([]string, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		p := OutputPath(in, outDir, ext)
		if _, dup := seen[p]; dup {
			base := strings.TrimSuffix(p, ".findings"+ext)
			for n := 2; ; n++ {
				cand := fmt.Sprintf("%s__%d.findings%s", base, n, ext)
				if _, taken := seen[cand]; !taken {
					p = cand
					break
				}
			}
		}
		seen[p] = struct{}{}
		out[i] = p
	}
	return out
}
