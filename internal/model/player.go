package model

import "time"

// Position is a roster position code as used by the league provider.
type Position string

const (
	PositionCenter    Position = "C"
	PositionLeftWing  Position = "LW"
	PositionRightWing Position = "RW"
	PositionForward   Position = "F"
	PositionDefense   Position = "D"
	PositionGoalie    Position = "G"
	PositionUtility   Position = "U"
)

// RosterStatus indicates whether a player is on the managed roster or
// available on waivers/free agency.
type RosterStatus string

const (
	StatusOwned     RosterStatus = "owned"
	StatusFreeAgent RosterStatus = "free_agent"
)

// GameLine is a single per-game stat tally within a player's recent window.
type GameLine struct {
	Date          time.Time `json:"date"`
	FantasyPoints float64   `json:"fantasy_points"`
}

// Player is an immutable snapshot of one player for a single run. It is
// refreshed from the roster provider on every invocation and never mutated
// by the engine.
type Player struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Team         string       `json:"team"`
	Positions    []Position   `json:"positions"`
	RecentGames  []GameLine   `json:"recent_games"`
	SeasonPoints float64      `json:"season_points"`
	SeasonGames  int          `json:"season_games"`
	Status       RosterStatus `json:"status"`
	Injured      bool         `json:"injured"`
	OnIR         bool         `json:"on_ir"`
}

// RecentPerGame returns average fantasy points per game over the recent window.
func (p Player) RecentPerGame() float64 {
	if len(p.RecentGames) == 0 {
		return 0
	}
	var total float64
	for _, g := range p.RecentGames {
		total += g.FantasyPoints
	}
	return total / float64(len(p.RecentGames))
}

// SeasonPerGame returns average fantasy points per game season-to-date.
func (p Player) SeasonPerGame() float64 {
	if p.SeasonGames == 0 {
		return 0
	}
	return p.SeasonPoints / float64(p.SeasonGames)
}

// IsGoalie reports whether the player is positionally a goalie.
func (p Player) IsGoalie() bool {
	for _, pos := range p.Positions {
		if pos == PositionGoalie {
			return true
		}
	}
	return false
}

// SharesPosition reports whether two players have at least one position in
// common. Goalies only match goalies; any two skater positions are treated
// as streamable for one another when they overlap.
func (p Player) SharesPosition(other Player) bool {
	if p.IsGoalie() != other.IsGoalie() {
		return false
	}
	for _, a := range p.Positions {
		for _, b := range other.Positions {
			if a == b || a == PositionUtility || b == PositionUtility {
				return true
			}
		}
	}
	return false
}

// RosterSnapshot is the point-in-time roster state for one run: the managed
// roster plus the free-agent pool considered for streaming.
type RosterSnapshot struct {
	Roster     []Player  `json:"roster"`
	FreeAgents []Player  `json:"free_agents"`
	FetchedAt  time.Time `json:"fetched_at"`
}
