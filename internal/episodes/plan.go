package episodes

import (
	"sort"

	"perlentaucher/internal/ranking"
)

// Fallback controls candidates without recognizable episode numbers.
type Fallback int

const (
	// FallbackSequential numbers unlabeled candidates in season 1 after the
	// highest episode already present there.
	FallbackSequential Fallback = iota
	// FallbackDiscard drops unlabeled candidates.
	FallbackDiscard
)

// Planned is one episode scheduled for download.
type Planned struct {
	Key Key
	// Assigned is true when Key came from the fallback numbering.
	Assigned bool
	Scored   ranking.Scored
}

// Label is the S##E## label of the planned episode.
func (p Planned) Label() string { return p.Key.Label() }

// PlanSeason deduplicates ranked candidates by episode key, keeping the
// highest score per key, and returns them ordered by season and episode.
// Unlabeled candidates are handled per fallback, in ranking order.
func PlanSeason(ranked []ranking.Scored, fallback Fallback) []Planned {
	byKey := make(map[Key]Planned)
	var unlabeled []ranking.Scored
	for _, s := range ranked {
		key, ok := Extract(s.Candidate)
		if !ok {
			unlabeled = append(unlabeled, s)
			continue
		}
		if prev, seen := byKey[key]; seen && prev.Scored.Score >= s.Score {
			continue
		}
		byKey[key] = Planned{Key: key, Scored: s}
	}

	if fallback == FallbackSequential && len(unlabeled) > 0 {
		next := 0
		for key := range byKey {
			if key.Season == 1 && key.Episode > next {
				next = key.Episode
			}
		}
		for _, s := range unlabeled {
			next++
			byKey[Key{Season: 1, Episode: next}] = Planned{Key: Key{Season: 1, Episode: next}, Assigned: true, Scored: s}
		}
	}

	plan := make([]Planned, 0, len(byKey))
	for _, p := range byKey {
		plan = append(plan, p)
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Key.Less(plan[j].Key) })
	return plan
}

// Gaps lists, per season, the episode numbers missing between 1 and the
// highest planned episode of that season.
func Gaps(plan []Planned) map[int][]int {
	bySeason := make(map[int]map[int]struct{})
	for _, p := range plan {
		if bySeason[p.Key.Season] == nil {
			bySeason[p.Key.Season] = make(map[int]struct{})
		}
		bySeason[p.Key.Season][p.Key.Episode] = struct{}{}
	}
	gaps := make(map[int][]int)
	for season, eps := range bySeason {
		highest := 0
		for ep := range eps {
			highest = max(highest, ep)
		}
		for ep := 1; ep <= highest; ep++ {
			if _, ok := eps[ep]; !ok {
				gaps[season] = append(gaps[season], ep)
			}
		}
	}
	return gaps
}
