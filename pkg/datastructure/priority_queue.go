package datastructure

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	ErrHeapEmpty    = errors.New("priority queue is empty")
	ErrItemNotFound = errors.New("item not in priority queue")
)

type PriorityQueueNode[T constraints.Ordered] struct {
	Rank float64
	Item T
}

// MinHeap binary heap priority queue with decrease-key. Ties on Rank are
// broken by the smaller Item so repeated runs extract nodes in the same
// order.
type MinHeap[T constraints.Ordered] struct {
	heap     []PriorityQueueNode[T]
	indexMap map[T]int
}

func NewMinHeap[T constraints.Ordered]() *MinHeap[T] {
	return &MinHeap[T]{
		heap:     make([]PriorityQueueNode[T], 0),
		indexMap: make(map[T]int),
	}
}

func (h *MinHeap[T]) less(a, b PriorityQueueNode[T]) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Item < b.Item
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.indexMap[h.heap[i].Item] = i
	h.indexMap[h.heap[j].Item] = j
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.less(h.heap[index], h.heap[h.parent(index)]) {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.less(h.heap[left], h.heap[smallest]) {
			smallest = left
		}
		if right < len(h.heap) && h.less(h.heap[right], h.heap[smallest]) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.indexMap[item]
	return ok
}

// GetMin returns the minimum node without removing it.
func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if len(h.heap) == 0 {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	return h.heap[0], nil
}

func (h *MinHeap[T]) Insert(node PriorityQueueNode[T]) {
	h.heap = append(h.heap, node)
	h.indexMap[node.Item] = len(h.heap) - 1
	h.heapifyUp(len(h.heap) - 1)
}

// ExtractMin pops the minimum node. O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if len(h.heap) == 0 {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.indexMap, root.Item)
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey lowers the rank of an item already in the queue. O(logN).
func (h *MinHeap[T]) DecreaseKey(node PriorityQueueNode[T]) error {
	index, ok := h.indexMap[node.Item]
	if !ok {
		return ErrItemNotFound
	}
	h.heap[index].Rank = node.Rank
	h.heapifyUp(index)
	return nil
}
