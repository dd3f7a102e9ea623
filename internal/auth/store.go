// Package auth persists the signed-in user's id and access token.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrUnauthenticated is returned by credential accessors before login.
var ErrUnauthenticated = errors.New("not authenticated: run `tally login` first")

// FileName is the credential file inside the config directory.
const FileName = "auth.json"

type credentials struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// Store holds one credential set backed by <dir>/auth.json. It is not safe
// for concurrent use.
type Store struct {
	path        string
	userID      string
	accessToken string
}

// Load opens the store in dir, creating dir if needed. A missing
// credential file leaves the store unauthenticated.
func Load(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("config directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	s := &Store{path: filepath.Join(dir, FileName)}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", s.path, err)
	}
	s.userID = c.UserID
	s.accessToken = c.AccessToken
	return s, nil
}

// Path returns the credential file path.
func (s *Store) Path() string {
	return s.path
}

// IsAuthenticated reports whether both a user id and a token are set.
func (s *Store) IsAuthenticated() bool {
	return s.userID != "" && s.accessToken != ""
}

// AccessToken returns the bearer token.
func (s *Store) AccessToken() (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrUnauthenticated
	}
	return s.accessToken, nil
}

// UserID returns the signed-in user's id.
func (s *Store) UserID() (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrUnauthenticated
	}
	return s.userID, nil
}

// Save replaces the persisted credentials. The file is written to a
// temporary name and renamed into place, so readers never see a partial
// object.
func (s *Store) Save(userID, accessToken string) error {
	if userID == "" || accessToken == "" {
		return errors.New("saving credentials: user id and access token are required")
	}

	data, err := json.Marshal(credentials{UserID: userID, AccessToken: accessToken})
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	s.userID = userID
	s.accessToken = accessToken
	return nil
}

// Delete removes the persisted credentials and clears the store.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	s.userID = ""
	s.accessToken = ""
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
