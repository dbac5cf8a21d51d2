package hotspotd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Identity is the persisted instance identity of the daemon. The UUID is
// published in the DNS-SD TXT record so clients can tell hotspots apart.
type Identity struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// IdentityStore keeps the identity on disk.
type IdentityStore struct {
	mu   sync.RWMutex
	path string
	id   Identity
}

// NewIdentityStore loads the identity from path, generating and saving a
// new one if none exists.
func NewIdentityStore(path string) (*IdentityStore, error) {
	s := &IdentityStore{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create identity directory: %w", err)
	}

	if err := s.load(); err != nil {
		log.Debug().Err(err).Msg("No existing identity, generating a new one")
		s.id = Identity{UUID: uuid.New().String(), Name: defaultName()}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to save identity: %w", err)
		}
	}

	log.Info().
		Str("uuid", s.id.UUID).
		Str("name", s.id.Name).
		Msg("Hotspot identity initialized")
	return s, nil
}

func (s *IdentityStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid identity format: %w", err)
	}
	if _, err := uuid.Parse(id.UUID); err != nil {
		return fmt.Errorf("identity has invalid UUID: %w", err)
	}
	if id.Name == "" {
		id.Name = defaultName()
	}
	s.id = id
	return nil
}

func (s *IdentityStore) save() error {
	data, err := json.MarshalIndent(s.id, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Identity returns the current identity.
func (s *IdentityStore) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SetName renames the instance and persists the change.
func (s *IdentityStore) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	s.id.Name = name
	return s.save()
}

func defaultName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "Hotspot"
	}
	return "Hotspot " + hostname
}
