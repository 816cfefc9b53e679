package saved

import (
	"sort"
	"sync"

	"github.com/johnrirwin/newsdesk/internal/models"
)

// Mutator edits a loaded collection. Returning false leaves the store
// untouched.
type Mutator func(articles []models.Article) ([]models.Article, bool)

// Collection serializes read-modify-write access to a Store. Each
// mutation re-reads the store under the lock before editing it, so writes
// made by other processes sharing the store are not lost. When
// a save fails the edited copy is kept and served until a later save
// succeeds.
type Collection struct {
	mu       sync.Mutex
	store    Store
	articles []models.Article
	unsaved  bool
}

func NewCollection(store Store) *Collection {
	return &Collection{store: store}
}

// current must be called with mu held.
func (c *Collection) current() []models.Article {
	if !c.unsaved {
		c.articles = c.store.Load()
	}
	return c.articles
}

// Apply runs fn against the current collection and persists the result
// when fn reports a change. It returns the collection as it stands after
// the call.
func (c *Collection) Apply(fn Mutator) []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, changed := fn(cloneArticles(c.current()))
	if changed {
		c.articles = cloneArticles(next)
		c.unsaved = c.store.Save(c.articles) != nil
	}
	return cloneArticles(c.articles)
}

// List returns the saved articles, most recently saved first.
func (c *Collection) List() []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneArticles(c.current())
}

func (c *Collection) IDs() map[string]struct{} {
	return models.ArticleIDs(c.List())
}

func (c *Collection) Contains(id string) bool {
	_, ok := c.IDs()[id]
	return ok
}

// Add inserts the article at the front. Already-saved ids are left alone
// and reported false.
func (c *Collection) Add(article models.Article) bool {
	added := false
	c.Apply(func(articles []models.Article) ([]models.Article, bool) {
		if indexOf(articles, article.ID) >= 0 {
			return articles, false
		}
		added = true
		return append([]models.Article{article}, articles...), true
	})
	return added
}

// Remove deletes every article with one of the given ids and reports how
// many were removed.
func (c *Collection) Remove(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	c.Apply(func(articles []models.Article) ([]models.Article, bool) {
		kept := articles[:0]
		for _, a := range articles {
			if _, ok := drop[a.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		return kept, removed > 0
	})
	return removed
}

// Toggle removes the article when saved and adds it otherwise. It returns
// whether the article is saved afterwards.
func (c *Collection) Toggle(article models.Article) bool {
	saved := false
	c.Apply(func(articles []models.Article) ([]models.Article, bool) {
		if i := indexOf(articles, article.ID); i >= 0 {
			return append(articles[:i], articles[i+1:]...), true
		}
		saved = true
		return append([]models.Article{article}, articles...), true
	})
	return saved
}

// RemoveAt deletes the articles at the given positions of the current
// list. Out-of-range and repeated offsets are ignored.
func (c *Collection) RemoveAt(offsets ...int) int {
	removed := 0
	c.Apply(func(articles []models.Article) ([]models.Article, bool) {
		drop := make(map[int]bool, len(offsets))
		for _, i := range offsets {
			if i >= 0 && i < len(articles) {
				drop[i] = true
			}
		}
		if len(drop) == 0 {
			return articles, false
		}

		idx := make([]int, 0, len(drop))
		for i := range drop {
			idx = append(idx, i)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(idx)))
		for _, i := range idx {
			articles = append(articles[:i], articles[i+1:]...)
		}
		removed = len(idx)
		return articles, true
	})
	return removed
}

func indexOf(articles []models.Article, id string) int {
	for i, a := range articles {
		if a.ID == id {
			return i
		}
	}
	return -1
}
