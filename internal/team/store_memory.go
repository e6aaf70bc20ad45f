package team

import (
	"context"
	"sync"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

type membershipKey struct {
	teamID id.TeamID
	userID id.UserID
}

// InMemoryStore stores teams and memberships in memory for tests.
type InMemoryStore struct {
	mu          sync.RWMutex
	teams       map[id.TeamID]*Team
	memberships map[membershipKey]Membership
}

// NewInMemoryStore constructs an empty in-memory team store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		teams:       make(map[id.TeamID]*Team),
		memberships: make(map[membershipKey]Membership),
	}
}

func (s *InMemoryStore) CreateTeam(_ context.Context, team *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; ok {
		return sentinel.ErrConflict
	}
	copyTeam := *team
	s.teams[team.ID] = &copyTeam
	return nil
}

func (s *InMemoryStore) FindTeam(_ context.Context, teamID id.TeamID) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyTeam := *team
	return &copyTeam, nil
}

func (s *InMemoryStore) FindPersonalTeam(_ context.Context, creatorID id.UserID) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, team := range s.teams {
		if team.Personal && team.CreatorID == creatorID {
			copyTeam := *team
			return &copyTeam, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) TeamsCreatedBy(_ context.Context, creatorID id.UserID) ([]*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var teams []*Team
	for _, team := range s.teams {
		if team.CreatorID == creatorID {
			copyTeam := *team
			teams = append(teams, &copyTeam)
		}
	}
	return teams, nil
}

func (s *InMemoryStore) DeleteTeam(_ context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[teamID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.teams, teamID)
	for key := range s.memberships {
		if key.teamID == teamID {
			delete(s.memberships, key)
		}
	}
	return nil
}

func (s *InMemoryStore) AddMembership(_ context.Context, membership Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{membership.TeamID, membership.UserID}
	if _, ok := s.memberships[key]; ok {
		return sentinel.ErrConflict
	}
	s.memberships[key] = membership
	return nil
}

func (s *InMemoryStore) RemoveMembership(_ context.Context, teamID id.TeamID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{teamID, userID}
	if _, ok := s.memberships[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.memberships, key)
	return nil
}

func (s *InMemoryStore) RemoveMembershipsByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.memberships {
		if key.userID == userID {
			delete(s.memberships, key)
		}
	}
	return nil
}

func (s *InMemoryStore) MembershipsByUser(_ context.Context, userID id.UserID) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var memberships []Membership
	for key, membership := range s.memberships {
		if key.userID == userID {
			memberships = append(memberships, membership)
		}
	}
	return memberships, nil
}

func (s *InMemoryStore) RoleOf(_ context.Context, teamID id.TeamID, userID id.UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.memberships[membershipKey{teamID, userID}]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return membership.Role, nil
}

func (s *InMemoryStore) MemberCount(_ context.Context, teamID id.TeamID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.memberships {
		if key.teamID == teamID {
			count++
		}
	}
	return count, nil
}
