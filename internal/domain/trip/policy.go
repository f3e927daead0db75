package trip

import "time"

const (
	// Cancellations this close to departure incur a penalty.
	penaltyWindow = 30 * time.Minute

	penaltyRate    = 0.2 // share of the accepted price per seat
	penaltyFloor   = 5.0
	penaltyNoPrice = 5.0 // flat penalty when no bid was accepted yet
)

// CancellationPenalty computes the monetary penalty for cancelling t at the
// given instant. Pure function: the caller evaluates it under lock so the
// decision time matches the commit time.
//
//	startTime - now >= 30m          -> 0
//	pricePerSeat > 0                -> max(0.2 * pricePerSeat, 5.0)
//	otherwise                       -> 5.0
func CancellationPenalty(t *Trip, now time.Time) float64 {
	if t.StartTime.Sub(now) >= penaltyWindow {
		return 0
	}
	if t.PricePerSeat > 0 {
		if p := penaltyRate * t.PricePerSeat; p > penaltyFloor {
			return p
		}
		return penaltyFloor
	}
	return penaltyNoPrice
}
