package ports

import (
	"context"

	"github.com/chatmandu/elections/internal/core/domain"
)

// ResultNotifier is the presentation side of an ended election. The
// monitor forwards each ended election exactly once; a notifier failure
// must not undo the end transition.
type ResultNotifier interface {
	NotifyEnded(ctx context.Context, election *domain.Election, result *domain.ElectionResult) error
}
