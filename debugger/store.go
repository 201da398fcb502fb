package debugger

import "github.com/google/btree"

type addrSetItem uint16

func (a addrSetItem) Less(other btree.Item) bool { return a < other.(addrSetItem) }

// AddrSet is an ordered set of 16-bit addresses backed by
// github.com/google/btree, the same ordered-index library proto uses
// for its server-side breakpoint table and dbginfo for its address/
// symbol indices. Used here for both the breakpoint store and the
// watch store, the distinct client-side BP/WATCH
// command tables.
type AddrSet struct {
	tree *btree.BTree
}

// NewAddrSet returns an empty set.
func NewAddrSet() *AddrSet {
	return &AddrSet{tree: btree.New(8)}
}

func (s *AddrSet) Insert(addr uint16) { s.tree.ReplaceOrInsert(addrSetItem(addr)) }
func (s *AddrSet) Delete(addr uint16) { s.tree.Delete(addrSetItem(addr)) }
func (s *AddrSet) Has(addr uint16) bool { return s.tree.Has(addrSetItem(addr)) }
func (s *AddrSet) Len() int { return s.tree.Len() }

// Successor returns the smallest stored address >= addr, and false
// when no such address is stored.
func (s *AddrSet) Successor(addr uint16) (uint16, bool) {
	var found uint16
	ok := false
	s.tree.AscendGreaterOrEqual(addrSetItem(addr), func(item btree.Item) bool {
		found = uint16(item.(addrSetItem))
		ok = true
		return false
	})
	return found, ok
}

// All returns every stored address in ascending order.
func (s *AddrSet) All() []uint16 {
	out := make([]uint16, 0, s.tree.Len())
	s.tree.Ascend(func(item btree.Item) bool {
		out = append(out, uint16(item.(addrSetItem)))
		return true
	})
	return out
}
