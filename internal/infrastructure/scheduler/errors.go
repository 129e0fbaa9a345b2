package scheduler

import "errors"

// ErrSchedulerAlreadyRunning is returned when Start is called twice
var ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
