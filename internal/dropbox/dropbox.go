// Package dropbox locates the Dropbox for Business folder of the local
// Dropbox client by reading its info.json.
package dropbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrNotInstalled  = errors.New("dropbox is not installed")
	ErrNoBusinessDir = errors.New("cannot establish dropbox business folder path")
)

type account struct {
	Path     string `json:"path"`
	RootPath string `json:"root_path"`
	Host     int64  `json:"host"`
	IsTeam   bool   `json:"is_team"`
}

type info struct {
	Personal *account `json:"personal"`
	Business *account `json:"business"`
}

// Locator finds info.json in the standard client locations
type Locator struct {
	getenv  func(string) string
	homeDir func() (string, error)
}

// NewLocator creates a locator for the current user
func NewLocator() *Locator {
	return &Locator{
		getenv:  os.Getenv,
		homeDir: os.UserHomeDir,
	}
}

// InfoPath returns the first existing info.json: %LOCALAPPDATA% and
// %APPDATA% on Windows, then ~/.dropbox.
func (l *Locator) InfoPath() (string, error) {
	var candidates []string
	for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
		if dir := l.getenv(env); dir != "" {
			candidates = append(candidates, filepath.Join(dir, "Dropbox", "info.json"))
		}
	}
	if home, err := l.homeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, ".dropbox", "info.json"))
	}

	for _, path := range candidates {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotInstalled
}

// LocateBusinessRoot returns the root path of the business account
func (l *Locator) LocateBusinessRoot() (string, error) {
	path, err := l.InfoPath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var inf info
	if err := json.Unmarshal(data, &inf); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if inf.Business == nil || inf.Business.RootPath == "" {
		return "", ErrNoBusinessDir
	}
	return inf.Business.RootPath, nil
}
