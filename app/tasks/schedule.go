package tasks

import (
	"time"

	"github.com/ivpopov/articlepipe/app/database"
)

// SourceDue is the freshness predicate for a stored source: an active
// source is due when it has never been fetched or its fetch interval
// has elapsed since the last completed pass. overrideAll forces every
// active source due, used for a full refresh. The predicate is pure;
// the timestamp itself is updated only after a source's run completes.
func SourceDue(src *database.Source, now time.Time, overrideAll bool) bool {
	if src == nil || !src.Active {
		return false
	}
	if overrideAll {
		return true
	}
	if src.LastFetchedAt == nil {
		return true
	}
	return now.Sub(*src.LastFetchedAt) >= src.FetchInterval
}
