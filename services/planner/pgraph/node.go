// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pgraph

import (
	"slices"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/planner/action"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// ActionKey identifies an action node by value. The same grounded action
// recurring at several levels has the same key at each of them.
type ActionKey struct {
	Name       string
	Args       string
	Persistent bool
}

// String renders the key as "Name(args)".
func (k ActionKey) String() string {
	if k.Args == "" {
		return k.Name
	}
	return k.Name + "(" + k.Args + ")"
}

// KeyOf returns the node key of a grounded action.
func KeyOf(a *action.Action) ActionKey {
	t := newTemplate(a)
	return t.key
}

// indexSet is a set of sibling indices within one level.
type indexSet map[int]struct{}

func (s indexSet) has(i int) bool {
	_, ok := s[i]
	return ok
}

func (s indexSet) sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// template holds the per-action data computed once per graph and shared by
// every action node built from it.
type template struct {
	action     *action.Action
	key        ActionKey
	pre        []fluent.Literal
	eff        []fluent.Literal
	preSet     map[fluent.Literal]struct{}
	effSet     map[fluent.Literal]struct{}
	persistent bool
}

func newTemplate(a *action.Action) *template {
	t := &template{action: a}
	t.pre, t.preSet = literalSet(a.Preconditions())
	t.eff, t.effSet = literalSet(a.Effects())
	t.persistent = sameSet(t.preSet, t.effSet)
	t.key = ActionKey{
		Name:       a.Name(),
		Args:       strings.Join(a.Args(), ", "),
		Persistent: t.persistent,
	}
	return t
}

// literalSet dedupes lits, keeping first-seen order.
func literalSet(lits []fluent.Literal) ([]fluent.Literal, map[fluent.Literal]struct{}) {
	set := make(map[fluent.Literal]struct{}, len(lits))
	out := make([]fluent.Literal, 0, len(lits))
	for _, l := range lits {
		if _, ok := set[l]; ok {
			continue
		}
		set[l] = struct{}{}
		out = append(out, l)
	}
	return out, set
}

func sameSet(a, b map[fluent.Literal]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for l := range a {
		if _, ok := b[l]; !ok {
			return false
		}
	}
	return true
}

// factNode is a literal at one fact level. Parents index the previous action
// level, children the action level with the same number.
type factNode struct {
	literal  fluent.Literal
	parents  []int
	children []int
	mutex    indexSet
}

// actionNode is an action at one action level. Parents index the fact level
// with the same number, children the next fact level.
type actionNode struct {
	*template
	parents  []int
	children []int
	mutex    indexSet
}

// FactLevel is one S-level of the graph.
//
// Thread Safety: Read-only once the graph is built; safe for concurrent use.
type FactLevel struct {
	nodes []factNode
	index map[fluent.Literal]int
}

func newFactLevel(capacity int) *FactLevel {
	return &FactLevel{
		nodes: make([]factNode, 0, capacity),
		index: make(map[fluent.Literal]int, capacity),
	}
}

// add returns the index of l, appending a node if l is new to the level.
func (fl *FactLevel) add(l fluent.Literal) int {
	if i, ok := fl.index[l]; ok {
		return i
	}
	fl.nodes = append(fl.nodes, factNode{literal: l, mutex: indexSet{}})
	fl.index[l] = len(fl.nodes) - 1
	return len(fl.nodes) - 1
}

// Len returns the number of fact nodes.
func (fl *FactLevel) Len() int { return len(fl.nodes) }

// Literals returns the level's literals in insertion order.
func (fl *FactLevel) Literals() []fluent.Literal {
	out := make([]fluent.Literal, len(fl.nodes))
	for i := range fl.nodes {
		out[i] = fl.nodes[i].literal
	}
	return out
}

// Contains reports whether l is present at this level.
func (fl *FactLevel) Contains(l fluent.Literal) bool {
	_, ok := fl.index[l]
	return ok
}

// IsMutex reports whether a and b are both present and marked mutex.
func (fl *FactLevel) IsMutex(a, b fluent.Literal) bool {
	i, ok := fl.index[a]
	if !ok {
		return false
	}
	j, ok := fl.index[b]
	if !ok {
		return false
	}
	return fl.nodes[i].mutex.has(j)
}

// MutexOf returns the literals marked mutex with l, or nil if l is absent.
func (fl *FactLevel) MutexOf(l fluent.Literal) []fluent.Literal {
	i, ok := fl.index[l]
	if !ok {
		return nil
	}
	var out []fluent.Literal
	for _, j := range fl.nodes[i].mutex.sorted() {
		out = append(out, fl.nodes[j].literal)
	}
	return out
}

// MutexPairs counts unordered mutex pairs.
func (fl *FactLevel) MutexPairs() int {
	n := 0
	for i := range fl.nodes {
		n += len(fl.nodes[i].mutex)
	}
	return n / 2
}

// sameLiterals reports set equality of the literals; mutexes are ignored.
func (fl *FactLevel) sameLiterals(other *FactLevel) bool {
	if fl.Len() != other.Len() {
		return false
	}
	for l := range fl.index {
		if !other.Contains(l) {
			return false
		}
	}
	return true
}

// ActionLevel is one A-level of the graph.
//
// Thread Safety: Read-only once the graph is built; safe for concurrent use.
type ActionLevel struct {
	nodes []actionNode
	index map[ActionKey]int
}

func newActionLevel(capacity int) *ActionLevel {
	return &ActionLevel{
		nodes: make([]actionNode, 0, capacity),
		index: make(map[ActionKey]int, capacity),
	}
}

// Len returns the number of action nodes.
func (al *ActionLevel) Len() int { return len(al.nodes) }

// Keys returns the keys of the level's actions in insertion order.
func (al *ActionLevel) Keys() []ActionKey {
	out := make([]ActionKey, len(al.nodes))
	for i := range al.nodes {
		out[i] = al.nodes[i].key
	}
	return out
}

// Contains reports whether the action with key k is present.
func (al *ActionLevel) Contains(k ActionKey) bool {
	_, ok := al.index[k]
	return ok
}

// Action returns the grounded action behind k.
func (al *ActionLevel) Action(k ActionKey) (*action.Action, bool) {
	i, ok := al.index[k]
	if !ok {
		return nil, false
	}
	return al.nodes[i].action, true
}

// IsMutex reports whether a and b are both present and marked mutex.
func (al *ActionLevel) IsMutex(a, b ActionKey) bool {
	i, ok := al.index[a]
	if !ok {
		return false
	}
	j, ok := al.index[b]
	if !ok {
		return false
	}
	return al.nodes[i].mutex.has(j)
}

// MutexOf returns the keys marked mutex with k, or nil if k is absent.
func (al *ActionLevel) MutexOf(k ActionKey) []ActionKey {
	i, ok := al.index[k]
	if !ok {
		return nil
	}
	var out []ActionKey
	for _, j := range al.nodes[i].mutex.sorted() {
		out = append(out, al.nodes[j].key)
	}
	return out
}

// MutexPairs counts unordered mutex pairs.
func (al *ActionLevel) MutexPairs() int {
	n := 0
	for i := range al.nodes {
		n += len(al.nodes[i].mutex)
	}
	return n / 2
}

// Preconditions returns the precondition literals of k.
func (al *ActionLevel) Preconditions(k ActionKey) []fluent.Literal {
	i, ok := al.index[k]
	if !ok {
		return nil
	}
	return slices.Clone(al.nodes[i].pre)
}

// Effects returns the effect literals of k.
func (al *ActionLevel) Effects(k ActionKey) []fluent.Literal {
	i, ok := al.index[k]
	if !ok {
		return nil
	}
	return slices.Clone(al.nodes[i].eff)
}
