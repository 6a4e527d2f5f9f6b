package ux

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
)

// UnauthorizedMessage is the alert shown when the backend rejects the
// session.
const UnauthorizedMessage = "Unauthorized! Please log in again."

// LoginHint points the user at the sign-in command.
const LoginHint = "Run 'todoask auth login' to sign in."

// LoginNotifier alerts the user on stderr and sends them to the login
// command.
type LoginNotifier struct {
	Out    io.Writer
	Styles Styles
}

// Unauthorized implements apiclient.Notifier.
func (n *LoginNotifier) Unauthorized(_ context.Context, _ apiclient.Result) {
	out := n.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, n.Styles.Error.Render(UnauthorizedMessage))
	fmt.Fprintln(out, n.Styles.Muted.Render(LoginHint))
}

var _ apiclient.Notifier = (*LoginNotifier)(nil)
