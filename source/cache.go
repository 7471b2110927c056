/*
DESCRIPTION
  cache.go implements FrameCache, a bounded LRU cache mapping frame numbers
  to fully output-formatted frame bytes.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package source implements the Source Engine: the playback state machine,
// frame counter, loop flag, and decoded-frame LRU cache, composing the
// Decoder Adapter and Pixel Ops to deliver frames in the requested output
// format.
package source

import "container/list"

const defaultCacheSize = 30

type cacheEntry struct {
	frame int
	bytes []byte
}

// FrameCache is an ordered mapping from frame number to output-formatted
// frame bytes, bounded in size with least-recently-used eviction. It is not
// safe for concurrent use; callers hold the Engine's lock.
type FrameCache struct {
	maxSize int
	ll      *list.List               // Most-recent at front.
	index   map[int]*list.Element
}

// NewFrameCache returns an empty FrameCache bounded to maxSize entries. A
// non-positive maxSize defaults to 30, per the specification's default.
func NewFrameCache(maxSize int) *FrameCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &FrameCache{
		maxSize: maxSize,
		ll:      list.New(),
		index:   make(map[int]*list.Element),
	}
}

// Get returns the cached bytes for frame n, promoting it to
// most-recently-used. ok is false on a miss.
func (c *FrameCache) Get(n int) (b []byte, ok bool) {
	el, found := c.index[n]
	if !found {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).bytes, true
}

// Put inserts or updates the bytes cached for frame n, promoting it to
// most-recently-used, evicting the least-recently-used entry first if the
// cache is at capacity.
func (c *FrameCache) Put(n int, b []byte) {
	if el, found := c.index[n]; found {
		el.Value.(*cacheEntry).bytes = b
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.maxSize {
		c.evictOldest()
	}
	el := c.ll.PushFront(&cacheEntry{frame: n, bytes: b})
	c.index[n] = el
}

func (c *FrameCache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	delete(c.index, oldest.Value.(*cacheEntry).frame)
}

// Clear empties the cache.
func (c *FrameCache) Clear() {
	c.ll.Init()
	c.index = make(map[int]*list.Element)
}

// Len returns the number of entries currently cached.
func (c *FrameCache) Len() int {
	return c.ll.Len()
}
