/*
Package factory converts match setup documents into MatchConfig values.

PURPOSE:
  Decouples the wire/file representation of a match setup (JSON from the
  API, YAML from disk for the replay tool) from the domain MatchConfig.
  All structural validation of a setup document happens here, once, so
  neither the API layer nor the CLI grows its own ad hoc checks.

FORMATS:
  JSON  POST /api/matches request bodies
  YAML  match files for `cricketd replay` and seeding

SEE ALSO:
  - scoring/types.go: The MatchConfig being produced
  - api/handlers.go: JSON entry point
  - cmd/cricketd: YAML entry point
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/cricket-engine/scoring"
)

// ErrInvalidSetup is the root of all setup-document rejections.
var ErrInvalidSetup = errors.New("invalid match setup")

// =============================================================================
// SETUP DOCUMENT - Wire/file representation
// =============================================================================

// MatchSetup is the external document describing a match.
type MatchSetup struct {
	MatchID      string    `json:"match_id" yaml:"match_id"`
	Home         TeamSetup `json:"home" yaml:"home"`
	Away         TeamSetup `json:"away" yaml:"away"`
	OversLimit   int       `json:"overs_limit" yaml:"overs_limit"`
	TossWinner   string    `json:"toss_winner" yaml:"toss_winner"`
	TossDecision string    `json:"toss_decision" yaml:"toss_decision"`
}

type TeamSetup struct {
	ID      string        `json:"id" yaml:"id"`
	Name    string        `json:"name" yaml:"name"`
	Players []PlayerSetup `json:"players" yaml:"players"`
}

type PlayerSetup struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseJSON builds a MatchConfig from a JSON setup document.
func ParseJSON(data []byte) (scoring.MatchConfig, error) {
	var setup MatchSetup
	if err := json.Unmarshal(data, &setup); err != nil {
		return scoring.MatchConfig{}, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}
	return Build(setup)
}

// ParseYAML builds a MatchConfig from a YAML setup document.
func ParseYAML(data []byte) (scoring.MatchConfig, error) {
	var setup MatchSetup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return scoring.MatchConfig{}, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}
	return Build(setup)
}

// LoadFile reads a YAML setup file from disk.
func LoadFile(path string) (scoring.MatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.MatchConfig{}, err
	}
	return ParseYAML(data)
}

// Build validates a setup document and produces the domain config.
func Build(setup MatchSetup) (scoring.MatchConfig, error) {
	if setup.MatchID == "" {
		return scoring.MatchConfig{}, fmt.Errorf("%w: match_id is required", ErrInvalidSetup)
	}
	if setup.OversLimit < 0 {
		return scoring.MatchConfig{}, fmt.Errorf("%w: overs_limit must not be negative", ErrInvalidSetup)
	}

	home, err := buildTeam("home", setup.Home)
	if err != nil {
		return scoring.MatchConfig{}, err
	}
	away, err := buildTeam("away", setup.Away)
	if err != nil {
		return scoring.MatchConfig{}, err
	}
	if home.ID == away.ID {
		return scoring.MatchConfig{}, fmt.Errorf("%w: teams must have distinct ids", ErrInvalidSetup)
	}

	winner := scoring.TeamID(setup.TossWinner)
	if winner != home.ID && winner != away.ID {
		return scoring.MatchConfig{}, fmt.Errorf("%w: toss_winner %q is neither team", ErrInvalidSetup, setup.TossWinner)
	}

	decision := scoring.TossDecision(setup.TossDecision)
	if decision != scoring.TossBat && decision != scoring.TossBowl {
		return scoring.MatchConfig{}, fmt.Errorf("%w: toss_decision must be %q or %q",
			ErrInvalidSetup, scoring.TossBat, scoring.TossBowl)
	}

	return scoring.MatchConfig{
		MatchID:      setup.MatchID,
		Home:         home,
		Away:         away,
		OversLimit:   setup.OversLimit,
		TossWinner:   winner,
		TossDecision: decision,
	}, nil
}

func buildTeam(side string, setup TeamSetup) (scoring.Team, error) {
	if setup.ID == "" {
		return scoring.Team{}, fmt.Errorf("%w: %s team id is required", ErrInvalidSetup, side)
	}

	team := scoring.Team{
		ID:   scoring.TeamID(setup.ID),
		Name: setup.Name,
	}
	seen := map[string]bool{}
	for _, p := range setup.Players {
		if p.ID == "" {
			return scoring.Team{}, fmt.Errorf("%w: %s team has a player without an id", ErrInvalidSetup, side)
		}
		if seen[p.ID] {
			return scoring.Team{}, fmt.Errorf("%w: duplicate player id %q in %s team", ErrInvalidSetup, p.ID, side)
		}
		seen[p.ID] = true
		team.Players = append(team.Players, scoring.Player{
			ID:   scoring.PlayerID(p.ID),
			Name: p.Name,
		})
	}
	return team, nil
}
