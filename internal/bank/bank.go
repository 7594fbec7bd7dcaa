package bank

import (
	"math/rand/v2"
	"sync"
)

// levelFallback is the order tried when a pool has no items at the
// requested level.
var levelFallback = []int{2, 1, 3}

// Bank is the in-memory item index used for selection. The database is the
// source of truth; Replace swaps the index in one step after (re)loading.
type Bank struct {
	mu    sync.RWMutex
	items map[string][]*Item // lf|area|level -> items
	count int
}

// New creates an empty bank.
func New() *Bank {
	return &Bank{items: make(map[string][]*Item)}
}

func poolKey(lf, area string, level int) string {
	return lf + "|" + area + "|" + string(rune('0'+level))
}

// Replace rebuilds the index from the given items.
func (b *Bank) Replace(items []Item) {
	index := make(map[string][]*Item)
	for i := range items {
		it := items[i]
		key := poolKey(it.LF, it.Area, it.Level)
		index[key] = append(index[key], &it)
	}

	b.mu.Lock()
	b.items = index
	b.count = len(items)
	b.mu.Unlock()
}

// Count returns the number of indexed items.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Get returns an item by ID, or nil.
func (b *Bank) Get(id int64) *Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, pool := range b.items {
		for _, it := range pool {
			if it.ID == id {
				return it
			}
		}
	}
	return nil
}

// Pick samples up to n items from the (lf, area, level) pool. An empty pool
// falls back through levels 2, 1, 3; a fully empty area yields nil.
func (b *Bank) Pick(lf, area string, level, n int) []*Item {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pool := b.items[poolKey(lf, area, level)]
	if len(pool) == 0 {
		for _, alt := range levelFallback {
			if pool = b.items[poolKey(lf, area, alt)]; len(pool) > 0 {
				break
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}

	// Sample without replacement via a shuffled index.
	idx := rand.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]*Item, 0, n)
	for _, i := range idx[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}
