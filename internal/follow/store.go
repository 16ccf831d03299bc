// Package follow implements the persisted follow-relationship store.
//
// The store maps a target identity (a voice channel ID or a user ID) to the
// set of user identities following it. The two ID spaces are assumed disjoint:
// Discord snowflakes are unique across entity kinds, so a single key space can
// hold both. The full map lives in memory and is flushed to disk after every
// successful mutation; the artifact on disk is a bare JSON object whose keys
// are target IDs and whose values are arrays of follower IDs.
//
// The store is the exclusive owner of the artifact. All access goes through
// its methods, and a single mutex serializes mutations together with the
// persist they trigger, so concurrent command handlers cannot interleave a
// read-modify-write.
package follow

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/lookoutbot/lookout/internal/storage"
)

// ///////////////////////////////////////////////
// Store
// ///////////////////////////////////////////////

// Store holds follow relations in memory and mirrors them to a JSON artifact.
type Store struct {
	// mu serializes every read and mutation, including the persist step.
	mu sync.Mutex
	// path is the artifact location on disk.
	path string
	// relations maps target ID to follower IDs in insertion order.
	relations map[string][]string
}

// Open loads the artifact at path into a new Store. A missing file is not an
// error: the store starts empty and writes the artifact immediately so the
// file exists deterministically from first run. Any other read or parse
// failure is returned and leaves the store empty but usable (degraded, not
// crashed).
func Open(path string) (*Store, error) {
	s := &Store{
		path:      path,
		relations: make(map[string][]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if persistErr := s.persistLocked(); persistErr != nil {
				return s, fmt.Errorf("initialize follow artifact: %w", persistErr)
			}
			return s, nil
		}
		return s, fmt.Errorf("read follow artifact: %w", err)
	}

	// Decode into a scratch map so a parse failure partway through the
	// artifact cannot leave half-decoded keys in the live store.
	loaded := make(map[string][]string)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return s, fmt.Errorf("parse follow artifact: %w", err)
	}
	s.relations = loaded
	return s, nil
}

// Add inserts a follow relation. It returns true if the relation was new,
// false if followerID already followed targetID (idempotent). A successful
// insert triggers a persist; persist failures are logged and the in-memory
// state stays authoritative until the next successful write.
func (s *Store) Add(targetID, followerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.relations[targetID] {
		if f == followerID {
			return false
		}
	}
	s.relations[targetID] = append(s.relations[targetID], followerID)

	if err := s.persistLocked(); err != nil {
		slog.Error("failed to persist follow artifact", "target", targetID, "error", err)
	}
	return true
}

// Remove deletes a follow relation. It returns true if the relation existed.
// When the last follower of a target is removed the target key is deleted
// entirely, so empty follower sets never persist. A successful removal
// triggers a persist.
func (s *Store) Remove(targetID, followerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	followers, ok := s.relations[targetID]
	if !ok {
		return false
	}

	idx := -1
	for i, f := range followers {
		if f == followerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	followers = append(followers[:idx], followers[idx+1:]...)
	if len(followers) == 0 {
		delete(s.relations, targetID)
	} else {
		s.relations[targetID] = followers
	}

	if err := s.persistLocked(); err != nil {
		slog.Error("failed to persist follow artifact", "target", targetID, "error", err)
	}
	return true
}

// FollowersOf returns the followers of targetID in insertion order.
// The returned slice is a copy; callers may not mutate store internals.
// An unknown target yields an empty slice.
func (s *Store) FollowersOf(targetID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	followers := s.relations[targetID]
	out := make([]string, len(followers))
	copy(out, followers)
	return out
}

// TargetsFollowedBy returns every target that followerID follows, sorted for
// stable display. This is a full scan over all keys — O(targets) — which is
// fine at the expected scale of tens to low thousands of relations.
func (s *Store) TargetsFollowedBy(followerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var targets []string
	for target, followers := range s.relations {
		for _, f := range followers {
			if f == followerID {
				targets = append(targets, target)
				break
			}
		}
	}
	sort.Strings(targets)
	return targets
}

// Len returns the number of targets with at least one follower.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.relations)
}

// Persist flushes the in-memory map to disk. Mutating operations call this
// automatically; it is exported for an explicit flush on shutdown.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked serializes the full map and atomically overwrites the
// artifact. The caller must hold s.mu. On failure the previous on-disk state
// is left intact.
func (s *Store) persistLocked() error {
	return storage.WriteJSON(s.path, s.relations, 0o600)
}
