// Package saved persists the user's saved articles as a single JSON
// document and serializes read-modify-write access to it.
package saved

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
)

// DefaultFileName is the saved collection's file name inside the data dir.
const DefaultFileName = "saved_articles.json"

// Store loads and saves the whole collection. Load never fails: a missing
// or unreadable collection is empty. Save logs failures and reports them
// so Collection can keep the unsaved copy.
type Store interface {
	Load() []models.Article
	Save(articles []models.Article) error
}

// ErrWriteFailed is returned by MemoryStore.Save when FailWrites is set.
var ErrWriteFailed = errors.New("saved: write failed")

// FileStore keeps the collection in one file, replaced atomically on
// every save.
type FileStore struct {
	path   string
	logger *logging.Logger
}

func NewFileStore(dir string, logger *logging.Logger) *FileStore {
	return &FileStore{
		path:   filepath.Join(dir, DefaultFileName),
		logger: logger,
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() []models.Article {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read saved articles", logging.WithFields(map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			}))
		}
		return []models.Article{}
	}

	articles, err := codec.DecodeArticles(data)
	if err != nil {
		s.logger.Warn("Saved articles file is corrupt, ignoring", logging.WithFields(map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		}))
		return []models.Article{}
	}
	return articles
}

func (s *FileStore) Save(articles []models.Article) error {
	if err := s.write(articles); err != nil {
		s.logger.Error("Failed to save articles", logging.WithFields(map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		}))
		return err
	}
	s.logger.Debug("Saved articles", logging.WithFields(map[string]interface{}{
		"path":  s.path,
		"count": len(articles),
	}))
	return nil
}

func (s *FileStore) write(articles []models.Article) error {
	data, err := codec.EncodeArticles(articles)
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing saved file: %w", err)
	}
	return nil
}

// MemoryStore keeps the collection in memory. FailWrites makes Save drop
// the write, as a failing disk would. It is safe to flip between calls.
type MemoryStore struct {
	mu         sync.Mutex
	articles   []models.Article
	saves      int
	FailWrites bool
}

func NewMemoryStore(initial ...models.Article) *MemoryStore {
	return &MemoryStore{articles: cloneArticles(initial)}
}

func (m *MemoryStore) Load() []models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneArticles(m.articles)
}

func (m *MemoryStore) Save(articles []models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.FailWrites {
		return ErrWriteFailed
	}
	m.articles = cloneArticles(articles)
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneArticles(in []models.Article) []models.Article {
	out := make([]models.Article, len(in))
	copy(out, in)
	return out
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
