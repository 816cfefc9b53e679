// Package selection persists the set of selected NewsAPI sources.
package selection

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/johnrirwin/newsdesk/internal/kvstore"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
)

// DefaultKey is the key the selection is stored under.
const DefaultKey = "selected_source_ids"

// Store reads and writes the selection. Failures are absorbed: a read
// error yields an empty set and a write error is logged.
type Store interface {
	Get(ctx context.Context) models.SelectionSet
	Set(ctx context.Context, ids models.SelectionSet)
}

// KVStore keeps the selection as a sorted JSON array in a kvstore.Store.
type KVStore struct {
	kv     kvstore.Store
	key    string
	logger *logging.Logger
}

func NewKVStore(kv kvstore.Store, logger *logging.Logger) *KVStore {
	return &KVStore{kv: kv, key: DefaultKey, logger: logger}
}

func (s *KVStore) Get(ctx context.Context) models.SelectionSet {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("Failed to read source selection", logging.WithField("error", err.Error()))
		}
		return models.NewSelectionSet()
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("Stored source selection is corrupt, ignoring", logging.WithField("error", err.Error()))
		return models.NewSelectionSet()
	}
	return models.NewSelectionSet(ids...)
}

func (s *KVStore) Set(ctx context.Context, ids models.SelectionSet) {
	data, err := json.Marshal(ids.Sorted())
	if err != nil {
		s.logger.Error("Failed to encode source selection", logging.WithField("error", err.Error()))
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error("Failed to save source selection", logging.WithFields(map[string]interface{}{
			"count": len(ids),
			"error": err.Error(),
		}))
	}
}

var _ Store = (*KVStore)(nil)
