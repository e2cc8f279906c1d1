package types

import (
	"slices"
)

// Reaction is a single reaction symbol and the users who reacted with it.
type Reaction struct {
	Symbol string `json:"symbol"`
	// Ids of reacting users, unique, in the order of reacting.
	Users []string `json:"users"`
}

// ReactionLedger is the list of reactions to a message. A symbol appears in the ledger
// at most once and never with an empty list of users.
type ReactionLedger []Reaction

// Clone returns a deep copy of the ledger.
func (l ReactionLedger) Clone() ReactionLedger {
	if l == nil {
		return nil
	}
	clone := make(ReactionLedger, len(l))
	for i, r := range l {
		clone[i] = Reaction{Symbol: r.Symbol, Users: slices.Clone(r.Users)}
	}
	return clone
}

// Find returns the index of the symbol in the ledger or -1 if the symbol is missing.
func (l ReactionLedger) Find(symbol string) int {
	return slices.IndexFunc(l, func(r Reaction) bool { return r.Symbol == symbol })
}

// Has checks if the user reacted with the given symbol.
func (l ReactionLedger) Has(symbol, user string) bool {
	if idx := l.Find(symbol); idx >= 0 {
		return slices.Contains(l[idx].Users, user)
	}
	return false
}

// Toggle flips the user's membership in the symbol's entry and returns the new ledger and
// true if the reaction was added, false if it was removed. The receiver is not modified.
// An entry left without users is removed from the ledger.
func (l ReactionLedger) Toggle(symbol, user string) (ReactionLedger, bool) {
	out := l.Clone()

	idx := out.Find(symbol)
	if idx < 0 {
		return append(out, Reaction{Symbol: symbol, Users: []string{user}}), true
	}

	entry := &out[idx]
	if pos := slices.Index(entry.Users, user); pos >= 0 {
		entry.Users = slices.Delete(entry.Users, pos, pos+1)
		if len(entry.Users) == 0 {
			out = slices.Delete(out, idx, idx+1)
		}
		if len(out) == 0 {
			out = nil
		}
		return out, false
	}

	entry.Users = append(entry.Users, user)
	return out, true
}

// Normalize returns a copy of the ledger without duplicate users, duplicate symbols and empty entries.
// Used on ledgers read from storage which may have been written by older code.
func (l ReactionLedger) Normalize() ReactionLedger {
	var out ReactionLedger
	for _, r := range l {
		if r.Symbol == "" {
			continue
		}
		idx := out.Find(r.Symbol)
		if idx < 0 {
			out = append(out, Reaction{Symbol: r.Symbol})
			idx = len(out) - 1
		}
		for _, u := range r.Users {
			if u != "" && !slices.Contains(out[idx].Users, u) {
				out[idx].Users = append(out[idx].Users, u)
			}
		}
	}
	return slices.DeleteFunc(out, func(r Reaction) bool { return len(r.Users) == 0 })
}

// Count returns the number of users who reacted with the symbol.
func (l ReactionLedger) Count(symbol string) int {
	if idx := l.Find(symbol); idx >= 0 {
		return len(l[idx].Users)
	}
	return 0
}
