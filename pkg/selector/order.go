package selector

import (
	"slices"

	"github.com/danpilch/fpsmon/pkg/profile"
	"github.com/danpilch/fpsmon/pkg/strategy"
)

// Order returns the candidates permitted at the given stealth level, most
// reliable first. Among equally reliable candidates the preferred hook family
// wins; otherwise registration order is kept. The input is not modified.
func Order(candidates []strategy.Strategy, stealth strategy.StealthLevel, preferred profile.HookFamily) []strategy.Strategy {
	allowed := make([]strategy.Strategy, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if c.Describe().StealthNeed <= stealth {
			allowed = append(allowed, c)
		}
	}

	slices.SortStableFunc(allowed, func(a, b strategy.Strategy) int {
		da, db := a.Describe(), b.Describe()
		if da.Reliability != db.Reliability {
			return int(db.Reliability) - int(da.Reliability)
		}
		pa, pb := da.Family == preferred, db.Family == preferred
		switch {
		case pa && !pb:
			return -1
		case pb && !pa:
			return 1
		}
		return 0
	})
	return allowed
}
