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
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// ==============================================================================
// Action mutexes
// ==============================================================================

// updateActionMutex marks every mutex pair of al. sl is the fact level the
// actions draw their preconditions from.
func (g *Graph) updateActionMutex(al *ActionLevel, sl *FactLevel) {
	for i := range al.nodes {
		for j := i + 1; j < len(al.nodes); j++ {
			a, b := &al.nodes[i], &al.nodes[j]
			if g.serialMutex(a, b) ||
				inconsistentEffects(a, b) ||
				interference(a, b) ||
				competingNeeds(a, b, sl) {
				a.mutex[j] = struct{}{}
				b.mutex[i] = struct{}{}
			}
		}
	}
}

// serialMutex forbids two real actions in the same step.
func (g *Graph) serialMutex(a, b *actionNode) bool {
	return g.serial && !a.persistent && !b.persistent
}

// inconsistentEffects: one action's effect negates an effect of the other.
func inconsistentEffects(a, b *actionNode) bool {
	return negatesAny(a.eff, b.effSet)
}

// interference: an effect of either action negates a precondition of the other.
func interference(a, b *actionNode) bool {
	return negatesAny(a.eff, b.preSet) || negatesAny(b.eff, a.preSet)
}

// competingNeeds: some precondition of a is mutex with some precondition of b
// in the preceding fact level.
func competingNeeds(a, b *actionNode, sl *FactLevel) bool {
	for _, p := range a.parents {
		m := sl.nodes[p].mutex
		if len(m) == 0 {
			continue
		}
		for _, q := range b.parents {
			if m.has(q) {
				return true
			}
		}
	}
	return false
}

func negatesAny(lits []fluent.Literal, set map[fluent.Literal]struct{}) bool {
	for _, l := range lits {
		if _, ok := set[l.Negate()]; ok {
			return true
		}
	}
	return false
}

// ==============================================================================
// Fact mutexes
// ==============================================================================

// updateFactMutex marks every mutex pair of fl. al is the action level that
// produced it.
func (g *Graph) updateFactMutex(fl *FactLevel, al *ActionLevel) {
	for i := range fl.nodes {
		for j := i + 1; j < len(fl.nodes); j++ {
			a, b := &fl.nodes[i], &fl.nodes[j]
			if negation(a, b) || inconsistentSupport(a, b, al) {
				a.mutex[j] = struct{}{}
				b.mutex[i] = struct{}{}
			}
		}
	}
}

func negation(a, b *factNode) bool {
	return a.literal.Negate() == b.literal
}

// inconsistentSupport: every way of producing a is mutex with every way of
// producing b. A single action producing both is never mutex with itself, so
// shared producers make the pair achievable. If exactly one of the two has no
// producer the pair cannot hold together; if neither does there is no
// evidence either way.
func inconsistentSupport(a, b *factNode, al *ActionLevel) bool {
	switch {
	case len(a.parents) == 0 && len(b.parents) == 0:
		return false
	case len(a.parents) == 0 || len(b.parents) == 0:
		return true
	}
	for _, p := range a.parents {
		for _, q := range b.parents {
			if p == q || !al.nodes[p].mutex.has(q) {
				return false
			}
		}
	}
	return true
}
