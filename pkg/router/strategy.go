package router

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Strategy designates how candidates are ordered
type Strategy string

const (
	// BestAvailable orders providers by health: fewest failures, then most recent success
	BestAvailable Strategy = "best-available"

	// CostOptimized orders providers by cost, cheapest first
	CostOptimized Strategy = "cost-optimized"

	// RoundRobin rotates the first provider at each request
	RoundRobin Strategy = "round-robin"
)

// ParseStrategy returns the strategy with the given name, the empty name being BestAvailable
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return BestAvailable, nil
	case BestAvailable, CostOptimized, RoundRobin:
		return st, nil
	}
	return "", errors.Errorf("unknown routing strategy %s", s)
}

// order returns the available providers in the order the strategy says they should be tried
func (r *Router) order(st Strategy) ([]string, error) {
	switch st {
	case BestAvailable:
		return r.tracker.RankAvailable(r.ids), nil

	case CostOptimized:
		ids := r.tracker.RankAvailable(r.ids)
		sort.SliceStable(ids, func(i, j int) bool {
			return r.costs[ids[i]] < r.costs[ids[j]]
		})
		return ids, nil

	case RoundRobin:
		var ids []string
		for _, id := range r.ids {
			if r.tracker.IsAvailable(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return ids, nil
		}
		shift := int((atomic.AddUint32(&r.next, 1) - 1) % uint32(len(ids)))
		res := make([]string, 0, len(ids))
		res = append(res, ids[shift:]...)
		return append(res, ids[:shift]...), nil
	}
	return nil, errors.Errorf("unknown routing strategy %s", st)
}

// withPreferred moves the preferred provider first
func withPreferred(ids []string, preferred string) []string {
	res := []string{preferred}
	for _, id := range ids {
		if id != preferred {
			res = append(res, id)
		}
	}
	return res
}
