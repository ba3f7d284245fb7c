package cleanup

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"hushgram-service/internal/observability"
	"hushgram-service/internal/repositories"
)

// Workflow removes every trace of a user: sent messages, group memberships
// (with the owning groups' member counts), active-chat markers, typing
// indicators, and finally the user row itself.
//
// Every step is delete-if-present and the count decrement is floored, so the
// workflow is idempotent: re-running it after a partial failure, or two
// invocations racing for the same user (logout against the idle sweep),
// converge on the same end state.
type Workflow struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	groups   repositories.GroupRepository
	state    repositories.SessionStateRepository
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(users repositories.UserRepository, messages repositories.MessageRepository, groups repositories.GroupRepository, state repositories.SessionStateRepository) *Workflow {
	return &Workflow{users: users, messages: messages, groups: groups, state: state}
}

// DeleteUserAndData runs the five stages in order. The user row goes last so
// a crashed-and-resumed invocation can still resolve the user while
// re-scanning the owned rows. Any error aborts the invocation; completed
// stages stay done and the queue's redelivery finishes the rest.
func (w *Workflow) DeleteUserAndData(ctx context.Context, userID int) error {
	ctx, span := otel.Tracer("hushgram/cleanup").Start(ctx, "cleanup.delete_user")
	span.SetAttributes(attribute.Int("user.id", userID))
	defer span.End()

	err := w.run(ctx, userID)
	if err != nil {
		observability.IncCleanupRun("error")
		span.RecordError(err)
		return err
	}
	observability.IncCleanupRun("ok")
	return nil
}

func (w *Workflow) run(ctx context.Context, userID int) error {
	// Sent messages only. Messages addressed to this user belong to their
	// senders and survive; clients render the resulting dangling sender id
	// as a deleted user.
	deletedMessages, err := w.messages.DeleteBySender(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	observability.AddCleanupRows("messages", deletedMessages)

	memberships, err := w.groups.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range memberships {
		if err := w.groups.RemoveMembership(ctx, m.ID, m.GroupID); err != nil {
			return fmt.Errorf("remove membership %d: %w", m.ID, err)
		}
	}
	observability.AddCleanupRows("group_members", int64(len(memberships)))

	deletedChats, err := w.state.DeleteActiveChatsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete active chats: %w", err)
	}
	observability.AddCleanupRows("active_chats", deletedChats)

	deletedTyping, err := w.state.DeleteTypingForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete typing indicators: %w", err)
	}
	observability.AddCleanupRows("typing_indicators", deletedTyping)

	if err := w.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	log.Printf("user cleanup complete user_id=%d messages=%d memberships=%d active_chats=%d typing=%d",
		userID, deletedMessages, len(memberships), deletedChats, deletedTyping)
	return nil
}
