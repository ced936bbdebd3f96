package ownership

import (
	"sort"

	"github.com/okian/rosterlens/internal/domain/model"
)

// OverallPosition labels the all-positions strength row.
const OverallPosition = "Overall"

// Strength is an owner's summed trade value at one position, ranked against
// the rest of the league.
type Strength struct {
	Owner         string  `json:"owner"`
	Position      string  `json:"position"`
	Value         float64 `json:"value"`
	Rank          int     `json:"rank"`
	LeagueAverage float64 `json:"league_average"`
}

// TeamStrength sums each owner's trade values per position and overall for
// one scope. Rank 1 is the strongest owner and equal totals keep owner-name
// order. Free agents are not counted; default-mode views yield nothing.
func TeamStrength(v *View, values []model.TradeValue, scope model.Scope) []Strength {
	owners := v.Owners()
	if len(owners) == 0 {
		return nil
	}
	ownerOf := make(map[string]string, len(v.Entries))
	for _, e := range v.Entries {
		if e.Owner != "" {
			ownerOf[e.PlayerID] = e.Owner
		}
	}

	totals := make(map[string]map[string]float64)
	for _, tv := range values {
		if tv.Scope != scope {
			continue
		}
		owner, ok := ownerOf[tv.PlayerID]
		if !ok {
			continue
		}
		if totals[owner] == nil {
			totals[owner] = make(map[string]float64)
		}
		totals[owner][string(tv.Position)] += tv.Value
		totals[owner][OverallPosition] += tv.Value
	}

	positions := make([]string, 0, len(model.Positions)+1)
	for _, p := range model.Positions {
		positions = append(positions, string(p))
	}
	positions = append(positions, OverallPosition)

	var out []Strength
	for _, pos := range positions {
		rows := make([]Strength, len(owners))
		sum := 0.0
		for i, o := range owners {
			val := totals[o][pos]
			rows[i] = Strength{Owner: o, Position: pos, Value: val}
			sum += val
		}
		avg := sum / float64(len(owners))
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
		for i := range rows {
			rows[i].Rank = i + 1
			rows[i].LeagueAverage = avg
		}
		out = append(out, rows...)
	}
	return out
}
