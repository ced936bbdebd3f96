package service

import "errors"

// Sentinel errors.
var (
	ErrNoRankingFeed = errors.New("no ranking feed configured")
	ErrNoRosterFeed  = errors.New("no roster feed configured")
	ErrBuild         = errors.New("snapshot build failed")
)
