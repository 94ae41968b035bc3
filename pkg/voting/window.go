package voting

import (
	"fmt"
	"math"
	"time"
)

// validateWindow computes and bounds-checks a proposal's voting window.
// A zero requestedStart means "open now"; a zero requestedEnd means "close at
// the earliest allowed time". Backdated starts, windows shorter than
// minDuration, and date arithmetic that would overflow all fail with a
// DateOutOfBoundsError.
func validateWindow(requestedStart, requestedEnd, now uint64, minDuration time.Duration) (start, end uint64, err error) {
	if requestedStart == 0 {
		start = now
	} else {
		if requestedStart < now {
			return 0, 0, fmt.Errorf("start date: %w",
				&DateOutOfBoundsError{Limit: now, Actual: requestedStart})
		}
		start = requestedStart
	}

	durSecs := uint64(minDuration / time.Second)
	if start > math.MaxUint64-durSecs {
		return 0, 0, fmt.Errorf("end date overflows: %w",
			&DateOutOfBoundsError{Limit: math.MaxUint64, Actual: start})
	}
	earliestEnd := start + durSecs

	if requestedEnd == 0 {
		end = earliestEnd
	} else {
		if requestedEnd < earliestEnd {
			return 0, 0, fmt.Errorf("end date: %w",
				&DateOutOfBoundsError{Limit: earliestEnd, Actual: requestedEnd})
		}
		end = requestedEnd
	}
	return start, end, nil
}
