/*
Package workers sizes the small worker pools of the player.

Go sets GOMAXPROCS from the container CPU limit, whereas runtime.NumCPU still
reports the host. Counts here are derived from GOMAXPROCS so a kiosk box or a
constrained pod does not spawn a worker per host core.

	// segment downloads for one composite slide image
	g.SetLimit(workers.ForSegments(8))

	// libvips thread pool
	vips.Startup(&vips.Config{ConcurrencyLevel: workers.ForCPU(4)})

SEGMENT_WORKERS overrides ForSegments. The override is still capped by the
limit passed by the caller.
*/
package workers
