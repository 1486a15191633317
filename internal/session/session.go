// Package session records which user is signed in on this machine.
// Only presence matters to the rest of the program; there are no
// credentials here.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskboard/internal/filelock"
)

const (
	// FileName is the session file inside the board directory.
	FileName = "session.yml"
	lockName = ".session.lock"
	fileMode = 0o600
)

// ErrNoSession is returned by Load when nobody is signed in.
var ErrNoSession = errors.New("not signed in (run 'taskboard login USER_ID')")

// Session identifies the signed-in user.
type Session struct {
	UserID   string    `yaml:"user_id" json:"user_id"`
	UserName string    `yaml:"user_name,omitempty" json:"user_name,omitempty"`
	SignedIn time.Time `yaml:"signed_in_at" json:"signed_in_at"`
}

// Path returns the session file path for a board directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the session from dir.
func Load(dir string) (*Session, error) {
	data, err := os.ReadFile(Path(dir)) //nolint:gosec // path from trusted board dir
	if os.IsNotExist(err) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if s.UserID == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes s to dir.
func Save(dir string, s *Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return filelock.With(filepath.Join(dir, lockName), func() error {
		tmp := Path(dir) + ".tmp"
		if err := os.WriteFile(tmp, data, fileMode); err != nil {
			return fmt.Errorf("writing session: %w", err)
		}
		return os.Rename(tmp, Path(dir))
	})
}

// Clear removes the session. Clearing an absent session is not an error.
func Clear(dir string) error {
	return filelock.With(filepath.Join(dir, lockName), func() error {
		if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing session: %w", err)
		}
		return nil
	})
}
