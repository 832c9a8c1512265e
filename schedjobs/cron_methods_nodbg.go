//go:build !debug

package schedjobs

import (
	"time"
)

func (job *CronJob) Matches(now time.Time) bool {
	return job.matches(now)
}
