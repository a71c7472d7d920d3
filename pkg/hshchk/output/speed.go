package output

import "time"

// Speed units, in 1024 steps.
const (
	UnitBytes     = "B/s"
	UnitKilobytes = "KB/s"
	UnitMegabytes = "MB/s"
	UnitGigabytes = "GB/s"
	UnitTerabytes = "TB/s"
)

// Speed returns the transfer rate between two byte counts taken elapsed
// apart, scaled to the largest unit that keeps the value at least one.
func Speed(current, previous uint64, elapsed time.Duration) (uint64, string) {
	ms := uint64(elapsed.Milliseconds())
	if ms == 0 || current <= previous {
		return 0, UnitBytes
	}

	perSecond := (current - previous) * 1000 / ms
	switch {
	case perSecond < 1<<10:
		return perSecond, UnitBytes
	case perSecond < 1<<20:
		return perSecond >> 10, UnitKilobytes
	case perSecond < 1<<30:
		return perSecond >> 20, UnitMegabytes
	case perSecond < 1<<40:
		return perSecond >> 30, UnitGigabytes
	default:
		return perSecond >> 40, UnitTerabytes
	}
}
