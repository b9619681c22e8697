package types

import "time"

const (
	// CensusTreeMaxLevels is the maximum number of levels in the census merkle tree.
	CensusTreeMaxLevels = 160
	// CensusKeyMaxLen is the maximum length of a census key in bytes.
	CensusKeyMaxLen = CensusTreeMaxLevels / 8
	// AccountLen is the length in bytes of a voter account identifier.
	AccountLen = 20
	// VotesPerBatch is the default number of ballots aggregated per batch.
	VotesPerBatch = 64
	// DefaultBatchTimeWindow is the default time a non-full batch waits before
	// it is processed anyway.
	DefaultBatchTimeWindow = 30 * time.Second
)
