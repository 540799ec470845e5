// Copyright 2026 CodeGraph Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ir

// Tier is one of the three semantic analysis depths. Tier values are
// ordered: BASE < EXTENDED < FULL, and layers(BASE) ⊂ layers(EXTENDED) ⊂
// layers(FULL) is enforced by (Tier).Layers, never by ad-hoc bool checks
// scattered through the builder.
type Tier int

const (
	TierBase Tier = iota
	TierExtended
	TierFull
)

func (t Tier) String() string {
	switch t {
	case TierBase:
		return "BASE"
	case TierExtended:
		return "EXTENDED"
	case TierFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// ParseTier parses a tier name, defaulting to BASE for anything
// unrecognized — the same conservative-fallback posture the planner uses.
func ParseTier(s string) Tier {
	switch s {
	case "EXTENDED":
		return TierExtended
	case "FULL":
		return TierFull
	default:
		return TierBase
	}
}

// Layers reports which semantic layers a tier includes. Every layer in
// BASE's set is present in EXTENDED's, and every layer in EXTENDED's is
// present in FULL's — this function is the single source of truth for that
// invariant, so tier-monotonicity tests assert against it directly.
func (t Tier) Layers() LayerSet {
	ls := LayerSet{CFG: true, Signatures: true, CallGraph: true}
	if t >= TierExtended {
		ls.DFG = true
		ls.Expressions = true
	}
	if t >= TierFull {
		ls.SSA = true
		ls.Dominators = true
		ls.PDG = true
		ls.InterproceduralDFG = true
	}
	return ls
}

// LayerSet is a typed bitset of semantic layers, one bool field per layer
// named in spec §3.3.
type LayerSet struct {
	CFG                bool
	Signatures         bool
	CallGraph          bool
	DFG                bool
	Expressions        bool
	SSA                bool
	Dominators         bool
	PDG                bool
	InterproceduralDFG bool
}
