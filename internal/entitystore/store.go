package entitystore

import (
	"sort"

	"github.com/pkg/errors"
)

// MaxCharacters bounds how many characters a single Store will register,
// matching the teacher's DoS-resilient hard caps in config.go
// (ResourceLimits.MaxTotalPlayers). Exceeding it is the §7 "Fatal" error
// kind: resource exhaustion propagates to the caller, no recovery
// attempted.
const MaxCharacters = 1_000_000

// Store owns characters and units by stable id. Characters and units are
// registered once by an external factory and persist until simulation end
// (§3 "Lifecycles").
type Store struct {
	characters map[int64]*Character
	units      map[uint32]*Unit
	unitByChar map[int64]uint32
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		characters: make(map[int64]*Character),
		units:      make(map[uint32]*Unit),
		unitByChar: make(map[int64]uint32),
	}
}

// RegisterCharacter adds c to the store. Returns an error (propagated, not
// recovered — §7 Fatal) if the id is already registered or the store is at
// capacity.
func (s *Store) RegisterCharacter(c *Character) error {
	if _, exists := s.characters[c.ID]; exists {
		return errors.Errorf("entitystore: character id %d already registered", c.ID)
	}
	if len(s.characters) >= MaxCharacters {
		return errors.Errorf("entitystore: at capacity (%d characters), cannot register id %d", MaxCharacters, c.ID)
	}
	s.characters[c.ID] = c
	return nil
}

// RegisterUnit adds u to the store. Returns an error if the id is already
// registered, the store is at capacity, or u's CharacterID is not a
// registered character (a unit owns exactly one character, §3).
func (s *Store) RegisterUnit(u *Unit) error {
	if _, exists := s.units[u.ID]; exists {
		return errors.Errorf("entitystore: unit id %d already registered", u.ID)
	}
	if _, ok := s.characters[u.CharacterID]; !ok {
		return errors.Errorf("entitystore: unit id %d references unregistered character id %d", u.ID, u.CharacterID)
	}
	if len(s.units) >= MaxCharacters {
		return errors.Errorf("entitystore: at capacity (%d units), cannot register id %d", MaxCharacters, u.ID)
	}
	s.units[u.ID] = u
	s.unitByChar[u.CharacterID] = u.ID
	return nil
}

// UnitOfCharacter returns the unit owned by the character with the given
// id, or nil if none is registered.
func (s *Store) UnitOfCharacter(characterID int64) *Unit {
	id, ok := s.unitByChar[characterID]
	if !ok {
		return nil
	}
	return s.units[id]
}

// Character returns the character with the given id, or nil if not found.
func (s *Store) Character(id int64) *Character {
	return s.characters[id]
}

// Unit returns the unit with the given id, or nil if not found.
func (s *Store) Unit(id uint32) *Unit {
	return s.units[id]
}

// CharacterOf returns the Character owned by unit u.
func (s *Store) CharacterOf(u *Unit) *Character {
	return s.characters[u.CharacterID]
}

// Characters returns every registered character in ascending id order
// (stable iteration order, required by §5's "character-id order (stable)"
// auto-targeting pass).
func (s *Store) Characters() []*Character {
	out := make([]*Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Units returns every registered unit in ascending id order (stable
// iteration order, required by §5's "unit-id order" movement pass).
func (s *Store) Units() []*Unit {
	out := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered characters.
func (s *Store) Len() int {
	return len(s.characters)
}
