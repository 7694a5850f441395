package cache

import (
	"container/list"
	"sync"

	"github.com/src-d/gitdb/plumbing"
)

// DefaultMaxSize is the cache budget used by NewObjectLRUDefault.
const DefaultMaxSize = 96 * MiByte

// ObjectLRU is a least-recently-used cache bounded by total object
// size rather than entry count: a handful of large blobs and a
// thousand small tree entries both fit the same budget in a way that
// matches how pack delta chains actually behave.
type ObjectLRU struct {
	MaxSize FileSize

	mu         sync.Mutex
	actualSize FileSize
	ll         *list.List
	cache      map[plumbing.Hash]*list.Element
}

type entry struct {
	hash plumbing.Hash
	obj  plumbing.EncodedObject
}

// NewObjectLRU returns a cache bounded to maxSize bytes of object
// content (by EncodedObject.Size, not wire-compressed size).
func NewObjectLRU(maxSize FileSize) *ObjectLRU {
	return &ObjectLRU{
		MaxSize: maxSize,
		ll:      list.New(),
		cache:   make(map[plumbing.Hash]*list.Element),
	}
}

// NewObjectLRUDefault returns a cache sized for typical pack-delta
// resolution workloads.
func NewObjectLRUDefault() *ObjectLRU {
	return NewObjectLRU(DefaultMaxSize)
}

// Put inserts or refreshes o, evicting the least-recently-used entries
// until the cache fits MaxSize (evicting o itself immediately if it
// alone exceeds MaxSize).
func (c *ObjectLRU) Put(o plumbing.EncodedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := o.Hash()
	if ee, ok := c.cache[hash]; ok {
		c.actualSize -= FileSize(ee.Value.(*entry).obj.Size())
		c.ll.MoveToFront(ee)
		ee.Value.(*entry).obj = o
		c.actualSize += FileSize(o.Size())
	} else {
		ee := c.ll.PushFront(&entry{hash, o})
		c.cache[hash] = ee
		c.actualSize += FileSize(o.Size())
	}

	for c.actualSize > c.MaxSize && c.ll.Len() > 0 {
		c.removeOldest()
	}
}

// Get returns the cached object for k, promoting it to most-recently
// used, or (nil, false) on a miss.
func (c *ObjectLRU) Get(k plumbing.Hash) (plumbing.EncodedObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ee, ok := c.cache[k]
	if !ok {
		return nil, false
	}

	c.ll.MoveToFront(ee)
	return ee.Value.(*entry).obj, true
}

// Clear empties the cache.
func (c *ObjectLRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll = list.New()
	c.cache = make(map[plumbing.Hash]*list.Element)
	c.actualSize = 0
}

func (c *ObjectLRU) removeOldest() {
	ee := c.ll.Back()
	if ee == nil {
		return
	}

	c.ll.Remove(ee)
	e := ee.Value.(*entry)
	delete(c.cache, e.hash)
	c.actualSize -= FileSize(e.obj.Size())
}
