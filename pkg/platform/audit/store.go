package audit

import (
	"context"

	id "custody/pkg/domain"
)

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister reads back events recorded for one actor, most recent first.
type Lister interface {
	ListByActor(ctx context.Context, actor id.Identity) ([]Event, error)
}
