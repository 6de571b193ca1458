package job

import "errors"

var (
	// ErrJobNotRunning signals a terminal or retry transition attempted
	// on a job that is not currently claimed. Terminal states stay final.
	ErrJobNotRunning = errors.New("job is not running")

	// ErrJobNotFailed signals an operator requeue attempted on a job
	// that has not terminally failed.
	ErrJobNotFailed = errors.New("job is not failed")
)
