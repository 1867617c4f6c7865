package repository

import "sync"

// collection 进程内有序键值集合；ID 由单调计数器分配，删除后不复用
type collection[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	order  []uint64
	items  map[uint64]*T
	setID  func(*T, uint64)
	clone  func(*T) *T
}

func newCollection[T any](setID func(*T, uint64), clone func(*T) *T) *collection[T] {
	return &collection[T]{
		items: make(map[uint64]*T),
		setID: setID,
		clone: clone,
	}
}

func (c *collection[T]) insert(v *T) *T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	rec := c.clone(v)
	c.setID(rec, id)
	c.items[id] = rec
	c.order = append(c.order, id)
	return c.clone(rec)
}

func (c *collection[T]) list() []*T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

func (c *collection[T]) get(id uint64) (*T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return c.clone(rec), true
}

// update 在写锁内对记录做原地修改，保证并发下合并不丢失
func (c *collection[T]) update(id uint64, mutate func(*T)) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.items[id]
	if !ok {
		return nil, false
	}
	next := c.clone(rec)
	mutate(next)
	c.setID(next, id)
	c.items[id] = next
	return c.clone(next), true
}

func (c *collection[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
