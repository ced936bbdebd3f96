package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Row is one loosely typed upstream record.
type Row map[string]any

// Field is a canonical column.
type Field string

// Canonical columns.
const (
	FieldID       Field = "id"
	FieldName     Field = "name"
	FieldTeam     Field = "team"
	FieldPosition Field = "position"
	FieldAge      Field = "age"
	FieldRank     Field = "rank"
	FieldBest     Field = "best"
	FieldWorst    Field = "worst"
	FieldAvg      Field = "avg"
	FieldStdDev   Field = "sd"
	FieldOwner    Field = "owner"
	FieldSeason   Field = "season"
	FieldWeek     Field = "week"
	FieldActual   Field = "actual"
	FieldExpected Field = "expected"
)

// Schema maps canonical fields to the column aliases a source uses. Aliases may
// descend into nested objects with dots ("stats.pts"). The first alias present
// in a row wins.
type Schema struct {
	Name    string
	Columns map[Field][]string
	// Where keeps only rows whose column equals the given value.
	Where map[string]string
	// RankFromAvg derives ranks by ordering each group on the average column,
	// for sources that publish a consensus value but no integer rank.
	RankFromAvg bool
	// Stats maps scoring stat names (pass_yd, rec, ...) to column aliases for
	// projected stat lines.
	Stats map[string][]string
}

// Built-in schema names.
const (
	SchemaFantasyProsECR = "fantasypros_ecr"
	SchemaDynastyProcess = "dynastyprocess"
	SchemaSleeperRoster  = "sleeper_roster"
	SchemaOpportunity    = "nflverse_opportunity"
	SchemaProjection     = "stat_projection"
)

func builtinSchemas() map[string]Schema {
	return map[string]Schema{
		SchemaFantasyProsECR: {
			Name: SchemaFantasyProsECR,
			Columns: map[Field][]string{
				FieldID:       {"player_id"},
				FieldName:     {"player_name"},
				FieldTeam:     {"player_team_id"},
				FieldPosition: {"player_position_id"},
				FieldAge:      {"player_age"},
				FieldRank:     {"pos_rank", "rank_ecr"},
				FieldBest:     {"rank_min"},
				FieldWorst:    {"rank_max"},
				FieldAvg:      {"rank_ave"},
				FieldStdDev:   {"rank_std"},
			},
		},
		SchemaDynastyProcess: {
			Name: SchemaDynastyProcess,
			Columns: map[Field][]string{
				FieldID:       {"fantasypros_id", "id"},
				FieldName:     {"player"},
				FieldTeam:     {"team", "tm"},
				FieldPosition: {"pos"},
				FieldAge:      {"age"},
				FieldBest:     {"best"},
				FieldWorst:    {"worst"},
				FieldAvg:      {"ecr"},
				FieldStdDev:   {"sd"},
			},
			Where:       map[string]string{"ecr_type": "dp"},
			RankFromAvg: true,
		},
		SchemaSleeperRoster: {
			Name: SchemaSleeperRoster,
			Columns: map[Field][]string{
				// Set only when the Sleeper id crosswalks to a ranking id.
				FieldID:       {"player_id"},
				FieldName:     {"full_name", "name"},
				FieldTeam:     {"team"},
				FieldPosition: {"position"},
				FieldAge:      {"age"},
				FieldOwner:    {"owner_name", "display_name"},
			},
		},
		SchemaOpportunity: {
			Name: SchemaOpportunity,
			Columns: map[Field][]string{
				FieldID:       {"player_id"},
				FieldName:     {"full_name", "player_name"},
				FieldTeam:     {"posteam", "team"},
				FieldPosition: {"position"},
				FieldSeason:   {"season"},
				FieldWeek:     {"week"},
				FieldActual:   {"total_fantasy_points"},
				FieldExpected: {"total_fantasy_points_exp"},
			},
		},
		SchemaProjection: {
			Name: SchemaProjection,
			Columns: map[Field][]string{
				FieldID:       {"player_id", "fantasypros_id", "id"},
				FieldName:     {"player_name", "player", "name"},
				FieldTeam:     {"team", "player_team_id"},
				FieldPosition: {"pos", "position"},
			},
			Stats: map[string][]string{
				"pass_yd":  {"pass_yd", "pass_yds", "passing_yards"},
				"pass_td":  {"pass_td", "pass_tds", "passing_tds"},
				"pass_int": {"pass_int", "interceptions"},
				"rush_yd":  {"rush_yd", "rush_yds", "rushing_yards"},
				"rush_td":  {"rush_td", "rush_tds", "rushing_tds"},
				"rec":      {"rec", "receptions"},
				"rec_yd":   {"rec_yd", "rec_yds", "receiving_yards"},
				"rec_td":   {"rec_td", "rec_tds", "receiving_tds"},
				"fum_lost": {"fum_lost", "fumbles_lost", "fl"},
			},
		},
	}
}

func (s Schema) keep(r Row) bool {
	for col, want := range s.Where {
		got, ok := asString(lookup(r, col))
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

func (s Schema) raw(r Row, f Field) any {
	for _, alias := range s.Columns[f] {
		if v := lookup(r, alias); v != nil {
			return v
		}
	}
	return nil
}

func (s Schema) str(r Row, f Field) string {
	v, _ := asString(s.raw(r, f))
	return strings.TrimSpace(v)
}

// stats reads every stat column present in the row.
func (s Schema) stats(r Row) map[string]float64 {
	out := make(map[string]float64, len(s.Stats))
	for stat, aliases := range s.Stats {
		for _, alias := range aliases {
			if v, ok := asFloat(lookup(r, alias)); ok {
				out[stat] = v
				break
			}
		}
	}
	return out
}

func (s Schema) num(r Row, f Field) *float64 {
	v, ok := asFloat(s.raw(r, f))
	if !ok {
		return nil
	}
	return &v
}

func lookup(r Row, path string) any {
	if v, ok := r[path]; ok {
		return v
	}
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		return nil
	}
	var cur any = map[string]any(r)
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			if rm, isRow := cur.(Row); isRow {
				m = rm
			} else {
				return nil
			}
		}
		cur, ok = m[p]
		if !ok {
			return nil
		}
	}
	return cur
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// asFloat coerces numbers and numeric strings. Empty strings and NA markers
// are unknown, never zero.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToUpper(s) {
		case "", "NA", "N/A", "NAN", "NULL", "-":
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case map[string]any:
		return asFloat(t["value"])
	}
	return 0, false
}

// asRank reads a positive integer rank. Labels like "RB12" yield 12.
func asRank(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimLeft(strings.TrimSpace(s), "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
		v = s
	}
	f, ok := asFloat(v)
	if !ok || f < 1 {
		return 0, false
	}
	return int(math.Round(f)), true
}
