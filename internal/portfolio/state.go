package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"PaperTrader/internal/model"
)

// LoadSnapshot reads a portfolio snapshot from disk. Returns (nil, nil) when
// no snapshot exists yet.
func LoadSnapshot(path string) (*model.PortfolioSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.PortfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Positions == nil {
		snap.Positions = make(map[string]*model.Position)
	}
	return &snap, nil
}

// SaveSnapshot writes the snapshot atomically: temp file in the same
// directory, sync, then rename over the destination. An interrupted write
// can never leave a half-written snapshot behind.
func SaveSnapshot(path string, snap *model.PortfolioSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
