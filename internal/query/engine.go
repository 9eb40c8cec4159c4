// Package query answers interactive filter/sort/group/aggregate queries
// over an immutable Run snapshot. Everything here is synchronous and
// cheap enough to re-run on every keystroke.
package query

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/energy-blueprint/leaderboard/internal/domain"
)

// Engine evaluates queries. It carries only a collator and is safe for
// concurrent use; the rows it operates on are passed in per call.
type Engine struct {
	coll *collate.Collator
}

func NewEngine() *Engine {
	return &Engine{coll: collate.New(language.Und, collate.Loose)}
}

// Query filters, sorts and optionally groups rows, and aggregates stats
// over the resulting view. The input slice is never mutated.
func (e *Engine) Query(rows []domain.Run, p domain.QueryParams) domain.Result {
	view := e.filter(rows, p)
	e.sortRows(view, p.SortKey, p.SortDir)

	res := domain.Result{
		Rows:  view,
		Stats: e.stats(view),
	}
	if p.GroupByDate() {
		res.Groups = groupByDay(view)
	}
	return res
}

func (e *Engine) filter(rows []domain.Run, p domain.QueryParams) []domain.Run {
	out := make([]domain.Run, 0, len(rows))
	for _, r := range rows {
		if !Matches(p.CPUFilter, r.CPULabel) {
			continue
		}
		if !Matches(p.UserFilter, r.UserDisplay) && !Matches(p.UserFilter, r.User) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// createdTime parses a run's creation timestamp, degrading to the epoch
// for anything unparseable so dateless rows sort deterministically.
func createdTime(r domain.Run) (time.Time, bool) {
	t, err := parseCreated(r.Created)
	if err != nil {
		return time.Unix(0, 0).UTC(), false
	}
	return t, true
}

var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseCreated(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range createdLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (e *Engine) sortRows(rows []domain.Run, key domain.SortKey, dir domain.SortDir) {
	desc := dir == domain.SortDesc

	switch key {
	case domain.SortCreated:
		sort.SliceStable(rows, func(i, j int) bool {
			ti, _ := createdTime(rows[i])
			tj, _ := createdTime(rows[j])
			if desc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		})
	case domain.SortUser:
		sort.SliceStable(rows, func(i, j int) bool {
			c := e.coll.CompareString(rows[i].DisplayName(), rows[j].DisplayName())
			if desc {
				return c > 0
			}
			return c < 0
		})
	default:
		value := numericValue(key)
		sort.SliceStable(rows, func(i, j int) bool {
			vi, okI := value(rows[i])
			vj, okJ := value(rows[j])
			// A row missing the key always sorts to the tail; a run with
			// no power reading must never look like the lowest-power run.
			if okI != okJ {
				return okI
			}
			if !okI {
				return false
			}
			if desc {
				return vi > vj
			}
			return vi < vj
		})
	}
}

func numericValue(key domain.SortKey) func(domain.Run) (float64, bool) {
	ptr := func(p *float64) (float64, bool) {
		if p == nil {
			return 0, false
		}
		return *p, true
	}
	switch key {
	case domain.SortAvgPower:
		return func(r domain.Run) (float64, bool) { return ptr(r.AvgPowerW) }
	case domain.SortPeakPower:
		return func(r domain.Run) (float64, bool) { return ptr(r.PeakPowerW) }
	case domain.SortEnergy:
		return func(r domain.Run) (float64, bool) { return ptr(r.EnergyWh) }
	case domain.SortCores:
		return func(r domain.Run) (float64, bool) { return float64(r.Cores), true }
	default: // SortThreads
		return func(r domain.Run) (float64, bool) { return float64(r.Threads), true }
	}
}

// groupByDay partitions already-sorted rows by calendar day, preserving
// both group order and in-group order.
func groupByDay(rows []domain.Run) []domain.Group {
	groups := make([]domain.Group, 0, 8)
	at := map[string]int{}
	for _, r := range rows {
		day := domain.UnknownDate
		if t, ok := createdTime(r); ok {
			day = t.UTC().Format("2006-01-02")
		}
		i, seen := at[day]
		if !seen {
			i = len(groups)
			at[day] = i
			groups = append(groups, domain.Group{Date: day})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

func (e *Engine) stats(rows []domain.Run) domain.Stats {
	users := map[string]struct{}{}
	cpus := map[string]struct{}{}
	nodes := map[string]struct{}{}
	var avg, peak, energy rangeAcc

	for _, r := range rows {
		users[r.User] = struct{}{}
		cpus[r.CPULabel] = struct{}{}
		if r.Node != "" {
			nodes[r.Node] = struct{}{}
		}
		avg.add(r.AvgPowerW)
		peak.add(r.PeakPowerW)
		energy.add(r.EnergyWh)
	}

	return domain.Stats{
		Users:    len(users),
		CPUs:     len(cpus),
		Nodes:    len(nodes),
		AvgPower: avg.rng(),
		Peak:     peak.rng(),
		Energy:   energy.rng(),
	}
}

type rangeAcc struct {
	min, max float64
	any      bool
}

func (a *rangeAcc) add(v *float64) {
	if v == nil {
		return
	}
	if !a.any || *v < a.min {
		a.min = *v
	}
	if !a.any || *v > a.max {
		a.max = *v
	}
	a.any = true
}

func (a rangeAcc) rng() domain.Range {
	if !a.any {
		return domain.Range{}
	}
	lo, hi := a.min, a.max
	return domain.Range{Min: &lo, Max: &hi}
}
