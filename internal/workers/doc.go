/*
Package workers sizes worker pools from the CPUs actually available to the
process.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU
reports the host. Pool sizes are derived from GOMAXPROCS so that a pod
limited to two CPUs on a large node does not start dozens of workers.

# Usage

	// Feed fetches are network-bound: two workers per CPU, at most 8.
	n := workers.ForIO(8)

	// Custom multiplier, no cap.
	n := workers.Count(3.0, 0)

# Environment Variable Override

FEED_WORKERS overrides the computed value (still capped by limit):

	FEED_WORKERS=4
*/
package workers
