package normalize

import (
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/xrash/smetrics"
)

const (
	jaroBoostThreshold = 0.7
	jaroPrefixSize     = 4
)

type candidate struct {
	id   string
	name string
	team string
}

// Resolver matches identity fields from any source to canonical player ids.
type Resolver struct {
	threshold float64
	exact     map[string]string
	byName    map[string][]string
	byPos     map[model.Position][]candidate
}

// NewResolver creates an empty resolver with the given fuzzy threshold.
func NewResolver(threshold float64) *Resolver {
	return &Resolver{
		threshold: threshold,
		exact:     make(map[string]string),
		byName:    make(map[string][]string),
		byPos:     make(map[model.Position][]candidate),
	}
}

func exactKey(name string, pos model.Position, team string) string {
	return name + "|" + string(pos) + "|" + team
}

func nameKey(name string, pos model.Position) string {
	return name + "|" + string(pos)
}

// Add indexes a player. The first player registered for a key wins.
func (r *Resolver) Add(p model.PlayerRef) {
	name := CanonicalName(p.Name)
	team := CanonicalTeam(p.Team)
	if _, ok := r.exact[exactKey(name, p.Position, team)]; !ok {
		r.exact[exactKey(name, p.Position, team)] = p.ID
	}
	nk := nameKey(name, p.Position)
	r.byName[nk] = append(r.byName[nk], p.ID)
	r.byPos[p.Position] = append(r.byPos[p.Position], candidate{id: p.ID, name: name, team: team})
}

// Exact returns the id registered for the exact name, position and team.
func (r *Resolver) Exact(name string, pos model.Position, team string) (string, bool) {
	id, ok := r.exact[exactKey(CanonicalName(name), pos, CanonicalTeam(team))]
	return id, ok
}

// Resolve returns the canonical id for the identity fields and the match
// confidence. It tries name+position+team, then name+position when that is
// unambiguous, then the best Jaro-Winkler match within the position.
func (r *Resolver) Resolve(name string, pos model.Position, team string) (string, float64, bool) {
	cn := CanonicalName(name)
	ct := CanonicalTeam(team)
	if cn == "" {
		return "", 0, false
	}
	if id, ok := r.exact[exactKey(cn, pos, ct)]; ok {
		return id, 1, true
	}
	if ids := r.byName[nameKey(cn, pos)]; len(ids) == 1 {
		return ids[0], 1, true
	}

	best, bestID := 0.0, ""
	for _, c := range r.byPos[pos] {
		score := smetrics.JaroWinkler(cn, c.name, jaroBoostThreshold, jaroPrefixSize)
		if ct != "" && c.team == ct {
			score += (1 - score) * 0.1
		}
		if score > best || (score == best && c.id < bestID) {
			best, bestID = score, c.id
		}
	}
	if bestID == "" || best < r.threshold {
		return "", best, false
	}
	return bestID, best, true
}
