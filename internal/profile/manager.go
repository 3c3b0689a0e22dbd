package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned when a create or update request lacks
// required fields.
var ErrInvalidInput = errors.New("invalid profile input")

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	ListProfiles() ([]Profile, error)
	GetProfile(id string) (Profile, error)
	GetProfileByEmail(email string) (Profile, error)
	CreateProfile(p Profile) error
	UpdateProfile(p Profile) error
	DeleteProfile(id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager validates profile input and applies defaults before handing
// records to the store.
type Manager struct {
	store ProfileStore
	clock Clock
	newID func() string
}

// NewManager creates a Manager backed by store.
func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		newID: func() string { return uuid.New().String() },
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock) *Manager {
	m := NewManager(store)
	m.clock = clock
	return m
}

// Validate checks the fields every stored profile must carry.
func (in Input) Validate() error {
	if in.Name == "" || in.Email == "" {
		return fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	return nil
}

// List returns a snapshot of every profile with projects and work attached.
func (m *Manager) List() ([]Profile, error) {
	profiles, err := m.store.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	return profiles, nil
}

// Get returns the profile with the given id.
func (m *Manager) Get(id string) (Profile, error) {
	return m.store.GetProfile(id)
}

// FindByEmail returns the profile registered under email.
func (m *Manager) FindByEmail(email string) (Profile, error) {
	return m.store.GetProfileByEmail(email)
}

// Create validates in, assigns identifiers and persists a new profile.
func (m *Manager) Create(in Input) (Profile, error) {
	if err := in.Validate(); err != nil {
		return Profile{}, err
	}

	now := m.clock.Now().UTC().Truncate(time.Second)
	p := m.build(m.newID(), in)
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := m.store.CreateProfile(p); err != nil {
		return Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	return p, nil
}

// Update replaces the profile's fields, projects and work entries with in.
func (m *Manager) Update(id string, in Input) (Profile, error) {
	if err := in.Validate(); err != nil {
		return Profile{}, err
	}

	p := m.build(id, in)
	p.UpdatedAt = m.clock.Now().UTC().Truncate(time.Second)

	if err := m.store.UpdateProfile(p); err != nil {
		return Profile{}, fmt.Errorf("updating profile %s: %w", id, err)
	}
	return m.store.GetProfile(id)
}

// Delete removes the profile and everything it owns.
func (m *Manager) Delete(id string) error {
	if err := m.store.DeleteProfile(id); err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	return nil
}

// build maps input onto a Profile, filling the defaults a stored record
// always has: empty education, no skills, no links.
func (m *Manager) build(id string, in Input) Profile {
	p := Profile{
		ID:        id,
		Name:      in.Name,
		Email:     in.Email,
		Education: in.Education,
		Skills:    append([]string{}, in.Skills...),
		Links:     make(map[string]string, len(in.Links)),
		Projects:  make([]Project, 0, len(in.Projects)),
		Work:      make([]WorkEntry, 0, len(in.Work)),
	}
	for k, v := range in.Links {
		p.Links[k] = v
	}
	for _, pr := range in.Projects {
		p.Projects = append(p.Projects, Project{
			ID:          m.newID(),
			ProfileID:   id,
			Title:       pr.Title,
			Description: pr.Description,
			Links:       append([]string{}, pr.Links...),
		})
	}
	for _, w := range in.Work {
		p.Work = append(p.Work, WorkEntry{
			ID:          m.newID(),
			ProfileID:   id,
			Company:     w.Company,
			Role:        w.Role,
			Duration:    w.Duration,
			Description: w.Description,
		})
	}
	return p
}
