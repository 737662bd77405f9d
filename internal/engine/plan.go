package engine

import (
	"sort"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/config"
	"github.com/blueline-sports/streamer-cli/internal/model"
)

// searchBudget caps the number of branch-and-bound nodes explored while
// selecting plan entries. Large free-agent pools otherwise explode.
const searchBudget = 200_000

// Planner builds streaming plans: dated drop/add sequences that maximize the
// projected point gain over the planning horizon while respecting the weekly
// acquisition limit.
type Planner struct {
	league config.LeagueConfig
}

// NewPlanner creates a strategy planner.
func NewPlanner(league config.LeagueConfig) *Planner {
	return &Planner{league: league}
}

// candidate is one positive-expected-value (drop, add, date) triple.
type candidate struct {
	entry model.PlanEntry
	gain  float64
}

// Plan selects a streaming plan from droppability assessments and the free
// agent pool. An empty assessment list or free-agent pool yields an empty
// plan, not an error.
//
// Each candidate move is the triple (drop, add, date): the projected gain is
// the added player's recent per-game rate times their remaining scheduled
// games from the move date, minus the same for the dropped player. Only
// strictly positive-gain candidates enter the search. The selection honors
// the weekly acquisition limit, adds each free agent at most once, and drops
// each roster player at most once.
func (p *Planner) Plan(snap model.RosterSnapshot, assessments []model.DroppabilityAssessment, schedule model.ScheduleSnapshot, now time.Time) model.StreamingPlan {
	horizon := now.AddDate(0, 0, p.league.PlanningHorizonDays)

	roster := make(map[string]model.Player, len(snap.Roster))
	for _, pl := range snap.Roster {
		roster[pl.ID] = pl
	}

	candidates := p.generate(roster, assessments, snap.FreeAgents, schedule, now, horizon)
	if len(candidates) == 0 {
		return model.StreamingPlan{}
	}

	// Deterministic order: best gain first, earlier date breaks ties, then
	// player IDs so equal candidates never reorder between runs.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].gain != candidates[j].gain {
			return candidates[i].gain > candidates[j].gain
		}
		if !candidates[i].entry.Date.Equal(candidates[j].entry.Date) {
			return candidates[i].entry.Date.Before(candidates[j].entry.Date)
		}
		if candidates[i].entry.AddPlayerID != candidates[j].entry.AddPlayerID {
			return candidates[i].entry.AddPlayerID < candidates[j].entry.AddPlayerID
		}
		return candidates[i].entry.DropPlayerID < candidates[j].entry.DropPlayerID
	})

	sel := &selector{
		candidates: candidates,
		limit:      p.league.AcquisitionLimitPerWeek,
		budget:     searchBudget,
	}
	sel.search(0, state{
		weekAdds: map[weekKey]int{},
		added:    map[string]bool{},
		dropped:  map[string]bool{},
	}, nil, 0)

	entries := append([]model.PlanEntry(nil), sel.best...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	var total float64
	for _, e := range entries {
		total += e.ExpectedValueDelta
	}
	return model.StreamingPlan{Entries: entries, TotalGain: total}
}

// generate enumerates positive-gain candidates. A free agent may only
// replace a roster player whose position slots it can cover: goalies swap
// with goalies, skaters with compatible skater slots.
func (p *Planner) generate(roster map[string]model.Player, assessments []model.DroppabilityAssessment, freeAgents []model.Player, schedule model.ScheduleSnapshot, now, horizon time.Time) []candidate {
	var out []candidate

	for _, a := range assessments {
		drop, ok := roster[a.PlayerID]
		if !ok {
			continue
		}
		dropWin := clipWindow(schedule.WindowFor(drop.Team), horizon)

		for _, add := range freeAgents {
			if add.Injured || add.OnIR {
				continue
			}
			if !add.SharesPosition(drop) {
				continue
			}
			addWin := clipWindow(schedule.WindowFor(add.Team), horizon)
			if len(addWin.Dates) == 0 {
				continue
			}

			for _, date := range addWin.Dates {
				if date.Before(now) || date.After(horizon) {
					continue
				}
				addGames := addWin.GamesOnOrAfter(date)
				dropGames := dropWin.GamesOnOrAfter(date)

				gain := add.RecentPerGame()*float64(addGames) - drop.RecentPerGame()*float64(dropGames)
				if gain <= 0 {
					continue
				}
				out = append(out, candidate{
					entry: model.PlanEntry{
						Date:               date,
						DropPlayerID:       drop.ID,
						DropPlayerName:     drop.Name,
						AddPlayerID:        add.ID,
						AddPlayerName:      add.Name,
						ExpectedValueDelta: gain,
					},
					gain: gain,
				})
			}
		}
	}
	return out
}

// clipWindow drops game dates past the planning horizon so projected game
// counts never credit games the plan cannot reach.
func clipWindow(w model.ScheduleWindow, horizon time.Time) model.ScheduleWindow {
	clipped := model.ScheduleWindow{Team: w.Team}
	for _, d := range w.Dates {
		if !d.After(horizon) {
			clipped.Dates = append(clipped.Dates, d)
		}
	}
	return clipped
}

type weekKey struct {
	year, week int
}

type state struct {
	weekAdds map[weekKey]int
	added    map[string]bool
	dropped  map[string]bool
}

type selector struct {
	candidates []candidate
	limit      int
	budget     int

	best     []model.PlanEntry
	bestGain float64
}

// search is a bounded include/exclude walk over candidates in descending
// gain order. The budget keeps worst-case pools tractable; the descending
// order means the first admissible greedy path is already a strong incumbent
// before the budget runs out.
func (s *selector) search(idx int, st state, chosen []model.PlanEntry, gain float64) {
	if s.budget <= 0 {
		return
	}
	s.budget--

	if gain > s.bestGain {
		s.bestGain = gain
		s.best = append([]model.PlanEntry(nil), chosen...)
	}
	if idx >= len(s.candidates) {
		return
	}

	c := s.candidates[idx]
	year, wk := model.WeekOf(c.entry.Date)
	week := weekKey{year, wk}

	if st.weekAdds[week] < s.limit && !st.added[c.entry.AddPlayerID] && !st.dropped[c.entry.DropPlayerID] {
		st.weekAdds[week]++
		st.added[c.entry.AddPlayerID] = true
		st.dropped[c.entry.DropPlayerID] = true

		s.search(idx+1, st, append(chosen, c.entry), gain+c.gain)

		st.weekAdds[week]--
		delete(st.added, c.entry.AddPlayerID)
		delete(st.dropped, c.entry.DropPlayerID)
	}

	s.search(idx+1, st, chosen, gain)
}
