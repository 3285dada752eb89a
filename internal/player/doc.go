// Package player runs the slide playback loop for one channel.
//
// The loop is a small state machine:
//
//	INIT -> LOADING -> DISPLAYING -> TRANSITIONING -> LOADING -> ...
//
// LOADING advances the cursor, re-fetching the playlist whenever the cursor
// runs past the last item. DISPLAYING inserts the rendered slide, activates
// it on the next frame and drives the progress bar once per frame until the
// item's duration has elapsed. TRANSITIONING deactivates the slide, waits for
// the exit transition and removes it.
//
// Fetch failures are retried forever with a fixed delay while the overlay
// explains what is happening. An empty playlist is not an error: the loop
// waits briefly and advances again, which re-fetches.
//
// All waiting goes through a clock.Clock so tests can run whole cycles in
// simulated time.
package player
