package moderation

import (
	"context"

	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/service"
)

// Notifier delivers an event to the live connections of the given users.
type Notifier interface {
	ToUsers(userIDs []uuid.UUID, event models.Event)
}

// Guard gates message delivery on block relationships and owns block state
// changes. Sends are checked before any message row is written.
type Guard struct {
	blocks   repositories.BlockRepository
	notifier Notifier
}

// NewGuard constructs a Guard.
func NewGuard(blocks repositories.BlockRepository, notifier Notifier) *Guard {
	return &Guard{blocks: blocks, notifier: notifier}
}

// CanSend reports whether the sender may deliver into a conversation with the
// given participants. Delivery is forbidden when any other participant has
// blocked the sender; the sender's own blocks do not stop their outgoing
// messages.
func (g *Guard) CanSend(ctx context.Context, sender uuid.UUID, participants []uuid.UUID) error {
	others := make([]uuid.UUID, 0, len(participants))
	for _, id := range participants {
		if id != sender {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil
	}

	blocked, err := g.blocks.AnyBlocking(ctx, others, sender)
	if err != nil {
		return err
	}
	if blocked {
		return service.ErrBlocked
	}
	return nil
}

// BlockUser records a block. Blocking an already-blocked user is a no-op
// success; only a real state change notifies the two parties.
func (g *Guard) BlockUser(ctx context.Context, blocker, blocked uuid.UUID) error {
	if blocker == blocked {
		return &service.Error{Kind: service.KindInvalidArgument, Msg: "cannot block yourself"}
	}

	changed, err := g.blocks.Create(ctx, blocker, blocked)
	if err != nil {
		return err
	}
	if changed {
		g.notifyParties(blocker, blocked, true)
	}
	return nil
}

// UnblockUser removes a block. Unblocking a user who was never blocked is a
// no-op success.
func (g *Guard) UnblockUser(ctx context.Context, blocker, blocked uuid.UUID) error {
	changed, err := g.blocks.Delete(ctx, blocker, blocked)
	if err != nil {
		return err
	}
	if changed {
		g.notifyParties(blocker, blocked, false)
	}
	return nil
}

func (g *Guard) notifyParties(blocker, blocked uuid.UUID, isBlocked bool) {
	g.notifier.ToUsers([]uuid.UUID{blocker, blocked}, models.UserBlockEvent{
		Type:      models.EventTypeUserBlockUpdate,
		BlockerID: blocker,
		BlockedID: blocked,
		IsBlocked: isBlocked,
	})
}
