// Package selection implements the technology and programme choice steps.
package selection

import (
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

// Labels returns the labels to render for the tech list, in order.
func Labels(sess hotspot.Session) []string {
	return sess.TechNames()
}

// Select sets the active tech to the first tech named label.
// Returns the session unchanged and false if nothing matches.
func Select(sess hotspot.Session, label string) (hotspot.Session, bool) {
	if len(sess.AllTechs) == 0 {
		log.Debug().Str("session", sess.ID).Msg("Tech list empty, nothing to select")
		return sess, false
	}

	for _, t := range sess.AllTechs {
		if t.Name == label {
			log.Info().Str("session", sess.ID).Str("tech", t.Name).Msg("Tech selected")
			return sess.WithActiveTech(t), true
		}
	}

	log.Warn().Str("session", sess.ID).Str("label", label).Msg("No tech with that name")
	return sess, false
}

// ProgrammeLabels returns the names of programmes, in order.
func ProgrammeLabels(programmes []hotspot.ProgrammeInfo) []string {
	names := make([]string, len(programmes))
	for i, p := range programmes {
		names[i] = p.Name
	}
	return names
}

// SelectProgramme sets the session programme to the first entry named label.
func SelectProgramme(sess hotspot.Session, programmes []hotspot.ProgrammeInfo, label string) (hotspot.Session, bool) {
	for _, p := range programmes {
		if p.Name == label {
			log.Info().Str("session", sess.ID).Str("programme", p.Name).Msg("Programme selected")
			return sess.WithProgramme(p), true
		}
	}
	return sess, false
}
