package efficiency

import "github.com/okian/rosterlens/internal/domain/model"

// ExpectationModel supplies expected points. The second return is false when
// the model has no estimate, which excludes the player from the output.
type ExpectationModel interface {
	Expected(playerID string, period model.Period) (float64, bool)
}

// ExpectationFunc adapts a function to ExpectationModel.
type ExpectationFunc func(playerID string, period model.Period) (float64, bool)

// Expected implements ExpectationModel.
func (f ExpectationFunc) Expected(playerID string, period model.Period) (float64, bool) {
	return f(playerID, period)
}

type periodKey struct {
	playerID string
	period   model.Period
}

// TableModel serves expected points published next to the actuals. A season
// estimate is the sum of the weekly estimates unless a season row exists.
type TableModel struct {
	values map[periodKey]float64
}

// NewTableModel indexes the Expected field of each record.
func NewTableModel(records []model.PointsRecord) *TableModel {
	t := &TableModel{values: make(map[periodKey]float64)}
	seasonRow := make(map[periodKey]bool)
	for _, r := range records {
		if r.Expected == nil {
			continue
		}
		season := periodKey{r.PlayerID, model.SeasonPeriod(r.Period.Season)}
		if r.Period.IsSeason() {
			t.values[season] = *r.Expected
			seasonRow[season] = true
			continue
		}
		t.values[periodKey{r.PlayerID, r.Period}] += *r.Expected
		if !seasonRow[season] {
			t.values[season] += *r.Expected
		}
	}
	return t
}

// Expected implements ExpectationModel.
func (t *TableModel) Expected(playerID string, period model.Period) (float64, bool) {
	v, ok := t.values[periodKey{playerID, period}]
	return v, ok
}
