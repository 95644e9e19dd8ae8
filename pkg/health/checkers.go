package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than limit goroutines are running.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}

// PingCheck adapts a Ping method, such as a database pool's, to a CheckFunc.
func PingCheck(p interface{ Ping(context.Context) error }) CheckFunc {
	return p.Ping
}
