package ownership

import (
	"errors"
	"fmt"
)

// ErrDataIntegrity marks a league roster that violates one-owner-per-player.
var ErrDataIntegrity = errors.New("ownership data integrity violation")

// DataIntegrityError reports a player claimed by more than one owner. The
// first claim by source order is kept.
type DataIntegrityError struct {
	LeagueID string `json:"league_id"`
	PlayerID string `json:"player_id"`
	Kept     string `json:"kept_owner"`
	Dropped  string `json:"dropped_owner"`
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s: league %s player %s owned by %q and %q", ErrDataIntegrity, e.LeagueID, e.PlayerID, e.Kept, e.Dropped)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }
