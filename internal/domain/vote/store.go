package vote

import (
	"sort"
	"sync"
)

// Store owns the active vote of every channel. Map access is atomic; callers
// doing read-modify-write hold the channel lock from Lock.
type Store struct {
	mu    sync.RWMutex
	votes map[string]*Vote
	locks keyedMutex
}

func NewStore() *Store {
	return &Store{
		votes: make(map[string]*Vote),
		locks: keyedMutex{locks: make(map[string]*refMutex)},
	}
}

// Lock enters the critical section of channelID.
func (s *Store) Lock(channelID string) (unlock func()) {
	return s.locks.lock(channelID)
}

// Create replaces the channel's vote and returns the one it replaced.
func (s *Store) Create(v Vote) (Vote, bool) {
	stored := v.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.votes[v.ChannelID]
	s.votes[v.ChannelID] = &stored
	if !ok {
		return Vote{}, false
	}
	return prev.Clone(), true
}

func (s *Store) Get(channelID string) (Vote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[channelID]
	if !ok {
		return Vote{}, false
	}
	return v.Clone(), true
}

func (s *Store) Remove(channelID string) (Vote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[channelID]
	if !ok {
		return Vote{}, false
	}
	delete(s.votes, channelID)
	return v.Clone(), true
}

// List returns copies of all active votes ordered by channel.
func (s *Store) List() []Vote {
	s.mu.RLock()
	res := make([]Vote, 0, len(s.votes))
	for _, v := range s.votes {
		res = append(res, v.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].ChannelID < res[j].ChannelID })
	return res
}

// mutate applies fn to the stored vote in place. The channel lock must be held.
func (s *Store) mutate(channelID string, fn func(v *Vote) error) (Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[channelID]
	if !ok {
		return Vote{}, ErrNoActiveVote
	}
	if err := fn(v); err != nil {
		return Vote{}, err
	}
	return v.Clone(), nil
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
