// Package history 保存最近瀏覽的食譜
package history

import (
	"container/list"
	"sync"

	"recipe-aggregator/internal/pkg/common"
)

// DefaultCapacity 每個使用者保留的最近食譜數
const DefaultCapacity = 10

// Equaler 可判斷相等的元素
type Equaler[T any] interface {
	Equals(other T) bool
}

// Queue 固定容量的最近項目佇列，最新的在前；超出容量時丟棄最舊的
type Queue[T Equaler[T]] struct {
	mu       sync.RWMutex
	items    *list.List
	capacity int
}

// NewQueue capacity <= 0 時使用 DefaultCapacity
func NewQueue[T Equaler[T]](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{items: list.New(), capacity: capacity}
}

// Enqueue 已存在相等元素時不做任何事
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for e := q.items.Front(); e != nil; e = e.Next() {
		if e.Value.(T).Equals(item) {
			return
		}
	}

	q.items.PushFront(item)
	for q.items.Len() > q.capacity {
		q.items.Remove(q.items.Back())
	}
}

// Dequeue 移除並回傳最舊的元素
func (q *Queue[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	back := q.items.Back()
	if back == nil {
		var zero T
		return zero, common.ErrEmptyCollection
	}
	q.items.Remove(back)
	return back.Value.(T), nil
}

// ToArray 由新到舊
func (q *Queue[T]) ToArray() []T {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(T))
	}
	return out
}

func (q *Queue[T]) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.items.Len()
}

func (q *Queue[T]) Capacity() int {
	return q.capacity
}
