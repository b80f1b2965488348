// Package pagecache keeps rendered pages in memory and drops them by cache tag
// when one of the things they were built from changes.
package pagecache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type PageCache struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration

	tagMux  sync.Mutex
	keys    map[string]map[string]struct{}
	keyTags map[string][]string
}

func New(maxCost int64, ttl time.Duration) (*PageCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,     // 1,000,000
		MaxCost:     maxCost, // bytes
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		return nil, fmt.Errorf("fail to initialize page cache: %w", err)
	}

	return &PageCache{
		cache:   cache,
		ttl:     ttl,
		keys:    make(map[string]map[string]struct{}),
		keyTags: make(map[string][]string),
	}, nil
}

func (pc *PageCache) Get(key string) ([]byte, bool) {
	val, ok := pc.cache.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

// Set stores content under key and remembers the tags it depends on. A zero
// ttl falls back to the cache default. Overwriting a key replaces both its
// content and its tags.
func (pc *PageCache) Set(key string, content []byte, tags []string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = pc.ttl
	}

	pc.tagMux.Lock()
	defer pc.tagMux.Unlock()

	if _, known := pc.keyTags[key]; known {
		// a pending first write would make the policy reject this one
		pc.cache.Del(key)
	}
	pc.untag(key)
	for _, tag := range tags {
		if _, ok := pc.keys[tag]; !ok {
			pc.keys[tag] = make(map[string]struct{})
		}
		pc.keys[tag][key] = struct{}{}
	}
	pc.keyTags[key] = tags

	return pc.cache.SetWithTTL(key, content, int64(len(content)), ttl)
}

// InvalidateTags removes every entry stored with at least one of tags and
// returns how many keys were dropped.
func (pc *PageCache) InvalidateTags(tags ...string) int {
	pc.tagMux.Lock()
	defer pc.tagMux.Unlock()

	dropped := 0
	for _, tag := range tags {
		for key := range pc.keys[tag] {
			pc.cache.Del(key)
			pc.untag(key)
			dropped++
		}
		delete(pc.keys, tag)
	}
	return dropped
}

func (pc *PageCache) untag(key string) {
	for _, tag := range pc.keyTags[key] {
		delete(pc.keys[tag], key)
		if len(pc.keys[tag]) == 0 {
			delete(pc.keys, tag)
		}
	}
	delete(pc.keyTags, key)
}

// Wait blocks until pending writes are visible to Get.
func (pc *PageCache) Wait() {
	pc.cache.Wait()
}

func (pc *PageCache) Close() {
	pc.cache.Close()
}
