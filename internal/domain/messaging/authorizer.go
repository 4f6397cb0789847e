package messaging

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/carepoint/portal/internal/domain/directory"
	"github.com/carepoint/portal/internal/realtime"
	"github.com/carepoint/portal/pkg/apperror"
)

// ChannelAuthorizer decides channel subscriptions for the portal: presence
// channels attach the caller's public profile, private user channels are
// self-only, private conversation channels are open to any authenticated
// caller. It is stateless and performs at most one directory lookup.
type ChannelAuthorizer struct {
	users directory.UserRepository
}

func NewChannelAuthorizer(users directory.UserRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{users: users}
}

func (a *ChannelAuthorizer) Authorize(ctx context.Context, callerID uuid.UUID, socketID, channel string) (*realtime.Grant, error) {
	if callerID == uuid.Nil {
		return nil, apperror.Unauthenticated("authentication required")
	}

	switch {
	case realtime.IsPresence(channel):
		user, err := a.users.GetByID(ctx, callerID)
		if err != nil {
			return nil, err
		}
		info, err := json.Marshal(user.Profile())
		if err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, "marshal user info", err)
		}
		return &realtime.Grant{
			Channel:  channel,
			SocketID: socketID,
			UserID:   callerID,
			UserInfo: info,
		}, nil

	case realtime.IsPrivate(channel):
		if owner, ok := realtime.ParseUserChannel(channel); ok {
			// A caller may only subscribe to their own user channel.
			if owner != callerID {
				return nil, apperror.Forbidden("cannot subscribe to another user's channel")
			}
		} else if _, ok := realtime.ParseConversationChannel(channel); !ok {
			return nil, apperror.InvalidArgument("unknown private channel")
		}
		return &realtime.Grant{
			Channel:  channel,
			SocketID: socketID,
			UserID:   callerID,
		}, nil

	default:
		return nil, apperror.InvalidArgument("unknown channel class")
	}
}

var _ realtime.Authorizer = (*ChannelAuthorizer)(nil)
