// Package statuscheck turns Job definitions into StatusFunc probes backed
// by a pooled HTTP client. It is the CLI's transport layer; SDK users
// supply their own StatusFunc and never touch this package.
package statuscheck

import (
	"context"

	"github.com/heyarsen/jobpoll/track"
)

// Probe adapts one job's status check into a [track.StatusFunc] so a
// tracker can drive it.
func Probe(client *Client, job track.Job) track.StatusFunc {
	return func(ctx context.Context) (track.Status, error) {
		return client.Check(ctx, job)
	}
}
