package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/devnet/internal/domain/profile"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/google/uuid"
)

type ProfilesRepo struct {
	s *Store
}

func (r *ProfilesRepo) Upsert(_ context.Context, userID string, f profile.Fields) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return profile.Profile{}, user.ErrNotFound
	}

	now := time.Now().UTC()

	p, ok := r.s.profiles[userID]
	if !ok {
		p = profile.Profile{
			ID:         uuid.NewString(),
			Experience: []profile.Experience{},
			Education:  []profile.Education{},
			CreatedAt:  now,
		}
	}

	skills := f.Skills
	if skills == nil {
		skills = []string{}
	}

	p.User.ID = userID
	p.Company = f.Company
	p.Website = f.Website
	p.Location = f.Location
	p.Status = f.Status
	p.Skills = skills
	p.Bio = f.Bio
	p.GitHubUsername = f.GitHubUsername
	p.Social = f.Social
	p.UpdatedAt = now

	r.s.profiles[userID] = p

	return r.populateLocked(p), nil
}

func (r *ProfilesRepo) GetByUserID(_ context.Context, userID string) (profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	return r.populateLocked(p), nil
}

func (r *ProfilesRepo) List(_ context.Context) ([]profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]profile.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, r.populateLocked(p))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ProfilesRepo) AddExperience(_ context.Context, userID string, x profile.Experience) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	p.Experience = prepend(p.Experience, x)
	r.s.profiles[userID] = p

	return r.populateLocked(p), nil
}

func (r *ProfilesRepo) AddEducation(_ context.Context, userID string, x profile.Education) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	p.Education = prepend(p.Education, x)
	r.s.profiles[userID] = p

	return r.populateLocked(p), nil
}

func (r *ProfilesRepo) ExperienceOwner(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for owner, p := range r.s.profiles {
		for _, x := range p.Experience {
			if x.ID == id {
				return owner, nil
			}
		}
	}

	return "", profile.ErrEntryNotFound
}

func (r *ProfilesRepo) EducationOwner(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for owner, p := range r.s.profiles {
		for _, x := range p.Education {
			if x.ID == id {
				return owner, nil
			}
		}
	}

	return "", profile.ErrEntryNotFound
}

func (r *ProfilesRepo) DeleteExperience(_ context.Context, userID, id string) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrEntryNotFound
	}

	var removed bool
	p.Experience, removed = removeWhere(p.Experience, func(x profile.Experience) bool { return x.ID == id })
	if !removed {
		return profile.Profile{}, profile.ErrEntryNotFound
	}

	r.s.profiles[userID] = p

	return r.populateLocked(p), nil
}

func (r *ProfilesRepo) DeleteEducation(_ context.Context, userID, id string) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrEntryNotFound
	}

	var removed bool
	p.Education, removed = removeWhere(p.Education, func(x profile.Education) bool { return x.ID == id })
	if !removed {
		return profile.Profile{}, profile.ErrEntryNotFound
	}

	r.s.profiles[userID] = p

	return r.populateLocked(p), nil
}

// populateLocked fills the user summary from the users map, like a join.
func (r *ProfilesRepo) populateLocked(p profile.Profile) profile.Profile {
	if u, ok := r.s.users[p.User.ID]; ok {
		p.User = u.Summary()
	}

	return p
}
