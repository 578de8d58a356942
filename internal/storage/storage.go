package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/poker-calendar/internal/rates"
)

const ratesFile = "rates.json"

// Storage handles persistence of rate tables
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) ratesPath() string {
	return filepath.Join(s.dataDir, ratesFile)
}

// LoadRates loads the saved rate table. It returns nil, nil when nothing
// has been saved yet.
func (s *Storage) LoadRates() (*rates.Table, error) {
	data, err := os.ReadFile(s.ratesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rates: %w", err)
	}

	var table rates.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}
	if len(table.Rates) == 0 {
		return nil, nil
	}

	return &table, nil
}

// SaveRates writes the rate table to disk. The file is replaced atomically
// so a concurrent LoadRates never sees a partial write.
func (s *Storage) SaveRates(table *rates.Table) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, ratesFile+".*")
	if err != nil {
		return fmt.Errorf("writing rates: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing rates: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing rates: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.ratesPath()); err != nil {
		return fmt.Errorf("writing rates: %w", err)
	}

	return nil
}
