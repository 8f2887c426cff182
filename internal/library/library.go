// Package library enumerates a folder of installed games.
//
// Each first-level subdirectory is one game. A steam_appid.txt file inside
// it, if present, names the Steam app id.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/shelf/internal/resolve"
)

// AppIDFile is the marker Steam leaves in a game folder.
const AppIDFile = "steam_appid.txt"

// skippedExecutables are installer and runtime helpers, never the game itself.
var skippedExecutables = []string{"redistributable.exe", "setup.exe"}

// ErrNoExecutable is returned by FindExecutable when a folder has no game binary.
var ErrNoExecutable = errors.New("no executable found")

// Scan lists the games in dir in lexical order.
// Hidden folders and plain files are skipped.
func Scan(dir string) ([]resolve.Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library %s: %w", dir, err)
	}

	var items []resolve.Candidate
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		items = append(items, resolve.Candidate{
			Key:        name,
			RawName:    name,
			ExternalID: readAppID(filepath.Join(dir, name)),
		})
	}
	return items, nil
}

// readAppID returns the trimmed marker content, or "" if it is missing or unreadable.
func readAppID(gameDir string) string {
	data, err := os.ReadFile(filepath.Join(gameDir, AppIDFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// FindExecutable returns the absolute path of the first .exe under dir in
// lexical walk order, ignoring installers and redistributables.
func FindExecutable(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	dir = abs

	var found string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees don't stop the search
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !isGameExecutable(d.Name()) {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNoExecutable)
	}
	return found, nil
}

func isGameExecutable(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".exe") {
		return false
	}
	for _, skip := range skippedExecutables {
		if strings.HasSuffix(lower, skip) {
			return false
		}
	}
	return true
}
