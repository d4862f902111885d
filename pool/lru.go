package pool

// lruList is a doubly-linked list of entry ids, backed by a slice arena
// instead of raw pointers (Design Notes §9: "express this as a handle/index
// ... into an arena-backed linked list"). Free nodes are recycled via
// freeHead so the arena never grows past the pool's high-water mark of
// simultaneously open streams.
type lruList struct {
	nodes    []lruNode
	head     int // most-recently-used, -1 if empty
	tail     int // least-recently-used, -1 if empty
	freeHead int // head of the free-node list, -1 if none
	length   int
}

type lruNode struct {
	entry      int
	prev, next int
}

func newLRUList() *lruList {
	return &lruList{head: -1, tail: -1, freeHead: -1}
}

// Len returns the number of entries currently in the list.
func (l *lruList) Len() int {
	return l.length
}

func (l *lruList) allocNode(entry int) int {
	if l.freeHead != -1 {
		idx := l.freeHead
		l.freeHead = l.nodes[idx].next
		l.nodes[idx] = lruNode{entry: entry, prev: -1, next: -1}
		return idx
	}
	l.nodes = append(l.nodes, lruNode{entry: entry, prev: -1, next: -1})
	return len(l.nodes) - 1
}

func (l *lruList) releaseNode(idx int) {
	l.nodes[idx] = lruNode{entry: -1, prev: -1, next: l.freeHead}
	l.freeHead = idx
}

// PushFront inserts entry at the MRU end and returns its node handle.
func (l *lruList) PushFront(entry int) int {
	idx := l.allocNode(entry)
	l.nodes[idx].next = l.head
	l.nodes[idx].prev = -1
	if l.head != -1 {
		l.nodes[l.head].prev = idx
	}
	l.head = idx
	if l.tail == -1 {
		l.tail = idx
	}
	l.length++
	return idx
}

// MoveToFront relocates the node at handle to the MRU end in O(1).
func (l *lruList) MoveToFront(handle int) {
	if handle == l.head {
		return
	}
	n := l.nodes[handle]
	if n.prev != -1 {
		l.nodes[n.prev].next = n.next
	}
	if n.next != -1 {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}

	l.nodes[handle].prev = -1
	l.nodes[handle].next = l.head
	if l.head != -1 {
		l.nodes[l.head].prev = handle
	}
	l.head = handle
	if l.tail == -1 {
		l.tail = handle
	}
}

// Remove detaches the node at handle from the list and releases it back to
// the arena's free list.
func (l *lruList) Remove(handle int) {
	n := l.nodes[handle]
	if n.prev != -1 {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != -1 {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.releaseNode(handle)
	l.length--
}

// PopBack removes and returns the LRU (tail) entry, if any.
func (l *lruList) PopBack() (entry int, handle int, ok bool) {
	if l.tail == -1 {
		return 0, -1, false
	}
	handle = l.tail
	entry = l.nodes[handle].entry
	l.Remove(handle)
	return entry, handle, true
}
