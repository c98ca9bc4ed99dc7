package commands

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	sitecmd "github.com/goliatone/go-homepage/internal/commands/site"
)

// GoCommandDispatcher subscribes site handlers to the go-command dispatcher so
// hosts can call dispatcher.Dispatch with a message.
type GoCommandDispatcher struct {
	maxRetries int
}

// NewGoCommandDispatcher returns a dispatcher adapter. maxRetries applies to
// every subscription; zero disables retries.
func NewGoCommandDispatcher(maxRetries int) *GoCommandDispatcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GoCommandDispatcher{maxRetries: maxRetries}
}

// RegisterCommand subscribes handler for its message type.
func (d *GoCommandDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	retries := runner.WithMaxRetries(d.maxRetries)
	switch h := handler.(type) {
	case *sitecmd.ValidateSiteHandler:
		return dispatcher.SubscribeCommand(h, retries), nil
	case *sitecmd.BuildSiteHandler:
		return dispatcher.SubscribeCommand(h, retries), nil
	case *sitecmd.CleanSiteHandler:
		return dispatcher.SubscribeCommand(h, retries), nil
	case *sitecmd.IndexSiteHandler:
		return dispatcher.SubscribeCommand(h, retries), nil
	default:
		return nil, fmt.Errorf("commands: unsupported handler %T", handler)
	}
}
