package apiclient

import "context"

// Notifier receives the side effect of a 401 response: alert the user and
// send them to sign in again. It is called once per unauthorized result,
// before the call returns, and cannot change that result.
type Notifier interface {
	Unauthorized(ctx context.Context, result Result)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, result Result)

// Unauthorized implements Notifier.
func (f NotifierFunc) Unauthorized(ctx context.Context, result Result) {
	f(ctx, result)
}

type nopNotifier struct{}

func (nopNotifier) Unauthorized(context.Context, Result) {}
