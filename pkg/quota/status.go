package quota

import "time"

// ComputeStatus derives the quota status for one resource type from a
// limit and a usage counter.
//
// If the window has expired (usage.ResetAt <= now), used is treated as
// zero for this calculation only. This read-time lazy reset persists
// nothing: two reads of an expired window in immediate succession both
// see used=0, and the displayed ResetAt stays stale until a write path
// rolls the window over.
//
// An admin lowering a limit below current usage leaves used > limit
// momentarily; that renders as remaining=0, allowed=false, never a
// negative remaining.
func ComputeStatus(limit int64, usage Usage, now time.Time) Status {
	used := usage.Used
	if !usage.ResetAt.After(now) {
		used = 0
	}

	if limit == Unlimited {
		return Status{
			Limit:     Unlimited,
			Used:      used,
			Remaining: Unlimited,
			Allowed:   true,
			Unlimited: true,
			ResetAt:   usage.ResetAt,
		}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		Allowed:   used < limit,
		Unlimited: false,
		ResetAt:   usage.ResetAt,
	}
}
