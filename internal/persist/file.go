// Package persist serializes rule snapshots to a JSON file on disk.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cnlance/rulesd/internal/rule"
)

// FileStore reads and writes the rules file. The file is a pretty-printed
// JSON array of {"rule_type","value"} objects in insertion order.
type FileStore struct {
	path string
}

func New(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

// Save overwrites the rules file with the given snapshot. The data is
// written to a temporary file in the same directory and renamed into
// place, so a crash mid-write cannot truncate the previous copy.
func (f *FileStore) Save(rules []rule.Rule) error {
	if rules == nil {
		rules = []rule.Rule{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close rules file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod rules file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}

// Load reads the rules file. A missing file is not an error: first-run
// startup begins with an empty collection. A file that exists but cannot
// be decoded is an error and must be surfaced to the caller.
func (f *FileStore) Load() ([]rule.Rule, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []rule.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rules file %s: %w", f.path, err)
	}
	return rules, nil
}
