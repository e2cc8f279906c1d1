// Package ringhash implements a consistent ring hash:
// https://en.wikipedia.org/wiki/Consistent_hashing
//
// The hub uses it to pin every feed to one of its run loops.
package ringhash

import (
	"cmp"
	"hash/crc32"
	"slices"
	"strconv"
)

// Hash is a signature of a hash function used by the package.
type Hash func(data []byte) uint32

type elem struct {
	key  string
	hash uint32
	// Position of the key in the order of addition.
	slot int
}

// Ring is the definition of the ringhash.
type Ring struct {
	// Sorted by hash then by key.
	keys []elem
	// Distinct keys in the order of addition.
	order []string

	replicas int
	hashfunc Hash
}

// New initializes an empty ringhash with the given number of replicas and a hash function.
// If the hash function is nil, crc32.ChecksumIEEE is used.
func New(replicas int, fn Hash) *Ring {
	if replicas <= 0 {
		replicas = 1
	}
	if fn == nil {
		fn = crc32.ChecksumIEEE
	}
	return &Ring{
		replicas: replicas,
		hashfunc: fn,
	}
}

// Len returns the number of distinct keys in the ring.
func (ring *Ring) Len() int {
	return len(ring.order)
}

// Add adds keys to the ring. Keys already in the ring are ignored.
func (ring *Ring) Add(keys ...string) {
	for _, key := range keys {
		if slices.Contains(ring.order, key) {
			continue
		}
		slot := len(ring.order)
		ring.order = append(ring.order, key)
		for i := 0; i < ring.replicas; i++ {
			ring.keys = append(ring.keys, elem{
				hash: ring.hashfunc([]byte(strconv.Itoa(i) + key)),
				key:  key,
				slot: slot,
			})
		}
	}
	// Weak hash function may cause collisions: break ties by key.
	slices.SortFunc(ring.keys, func(a, b elem) int {
		if c := cmp.Compare(a.hash, b.hash); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
}

func (ring *Ring) find(key string) *elem {
	if len(ring.keys) == 0 {
		return nil
	}

	hash := ring.hashfunc([]byte(key))

	// Binary search for appropriate replica.
	idx, _ := slices.BinarySearchFunc(ring.keys, hash, func(el elem, h uint32) int {
		if el.hash < h || (el.hash == h && el.key < key) {
			return -1
		}
		return 1
	})

	// Means we have cycled back to the first replica.
	if idx == len(ring.keys) {
		idx = 0
	}
	return &ring.keys[idx]
}

// Get returns the closest item in the ring to the provided key or an empty string
// if the ring is empty.
func (ring *Ring) Get(key string) string {
	if el := ring.find(key); el != nil {
		return el.key
	}
	return ""
}

// Slot is like Get but returns the position of the item in the order the items were added,
// or -1 if the ring is empty.
func (ring *Ring) Slot(key string) int {
	if el := ring.find(key); el != nil {
		return el.slot
	}
	return -1
}
