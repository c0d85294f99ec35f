// Package credential persists the bearer token that proves an
// authenticated company identity. The token lives on two surfaces that
// the auth manager keeps consistent: a durable file store and a
// short-lived cookie record used for command gating.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CookieName is the fixed key the backend's route gating expects.
const CookieName = "vm_access"

// Store persists and retrieves a single opaque bearer token.
// Load returns an empty token, not an error, when nothing is stored.
type Store interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// FileStore is the durable surface: a JSON file under the state dir.
type FileStore struct {
	path string
}

func NewFileStore(stateDir string) *FileStore {
	return &FileStore{path: filepath.Join(stateDir, "credentials.json")}
}

type fileRecord struct {
	Token string `json:"token"`
}

func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.Marshal(fileRecord{Token: token})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt credential file is treated as absent.
		return "", nil
	}
	return rec.Token, nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// CookieStore is the short-lived surface: the same token stored as a
// cookie record with a fixed TTL. Expired records read back as absent.
type CookieStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

func NewCookieStore(stateDir string, ttl time.Duration) *CookieStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CookieStore{
		path: filepath.Join(stateDir, "cookie.json"),
		ttl:  ttl,
		now:  time.Now,
	}
}

type cookieRecord struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *CookieStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	rec := cookieRecord{
		Name:      CookieName,
		Value:     token,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func (s *CookieStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read cookie file: %w", err)
	}
	var rec cookieRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", nil
	}
	if rec.Name != CookieName {
		return "", nil
	}
	if !rec.ExpiresAt.After(s.now()) {
		return "", nil
	}
	return rec.Value, nil
}

func (s *CookieStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
