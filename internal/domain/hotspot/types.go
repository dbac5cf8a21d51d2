// Package hotspot defines the data model shared by the hotspot client flow.
package hotspot

import (
	"sort"

	"github.com/google/uuid"
)

// Tech is one streaming technology offered by a hotspot.
type Tech struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ProgrammeInfo describes a single stream available under a technology.
type ProgrammeInfo struct {
	Name string            `json:"name"`
	URL  string            `json:"url"`
	Info map[string]string `json:"info,omitempty"`
}

// InfoKeys returns the info keys in sorted order.
func (p ProgrammeInfo) InfoKeys() []string {
	keys := make([]string, 0, len(p.Info))
	for k := range p.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Session carries the state built up while walking the client flow.
// Each step takes a Session and returns a new one; a failing step
// returns its input untouched.
type Session struct {
	ID         string
	HotspotURL string
	AllTechs   []Tech
	ActiveTech *Tech
	Programme  *ProgrammeInfo
}

// NewSession creates an empty session with a fresh ID.
func NewSession() Session {
	return Session{ID: uuid.New().String()}
}

// WithHotspotURL returns a copy of s with the hotspot URL set.
// An already populated URL is kept.
func (s Session) WithHotspotURL(url string) Session {
	if s.HotspotURL == "" {
		s.HotspotURL = url
	}
	return s
}

// WithTechs returns a copy of s with the tech list replaced. The active
// tech is cleared since it may no longer be part of the list.
func (s Session) WithTechs(techs []Tech) Session {
	s.AllTechs = append([]Tech(nil), techs...)
	s.ActiveTech = nil
	s.Programme = nil
	return s
}

// WithActiveTech returns a copy of s with the active tech set.
func (s Session) WithActiveTech(t Tech) Session {
	s.ActiveTech = &t
	s.Programme = nil
	return s
}

// WithProgramme returns a copy of s with the selected programme set.
func (s Session) WithProgramme(p ProgrammeInfo) Session {
	s.Programme = &p
	return s
}

// TechNames returns the names of all techs in order.
func (s Session) TechNames() []string {
	names := make([]string, len(s.AllTechs))
	for i, t := range s.AllTechs {
		names[i] = t.Name
	}
	return names
}
