package friends

import (
	"context"

	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"go.uber.org/zap"
)

// Service is the social graph as seen by a user.
type Service struct {
	store    *Store
	dir      *account.Directory
	presence *notify.Presence
	pub      *notify.Publisher
	log      *zap.Logger
}

// NewService creates a Service. presence and pub may be nil.
func NewService(store *Store, dir *account.Directory, presence *notify.Presence, pub *notify.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, dir: dir, presence: presence, pub: pub, log: log}
}

// Friend is one entry of a friends view.
type Friend struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Online    bool   `json:"online"`
}

// View groups a user's accepted friends and open requests.
type View struct {
	Friends []Friend `json:"friends"`
	Pending []Friend `json:"pending"`
	Sent    []Friend `json:"sent"`
}

// RequestFriend sends a friend request to the user named addresseeUsername.
func (s *Service) RequestFriend(ctx context.Context, requesterID int64, addresseeUsername string) (string, error) {
	requester, err := s.dir.Get(ctx, requesterID)
	if err != nil {
		return "", err
	}
	addressee, err := s.dir.GetByUsername(ctx, addresseeUsername)
	if err != nil {
		return "", err
	}
	if _, err := s.store.CreatePending(ctx, requester.ID, addressee.ID); err != nil {
		return "", err
	}

	s.pub.ToUser(ctx, addressee.ID, notify.EventFriendRequest, map[string]interface{}{
		"from": map[string]interface{}{
			"id":         requester.ID,
			"username":   requester.Username,
			"avatar_url": requester.AvatarURL,
		},
	})
	return "friend request sent to " + addressee.Username, nil
}

// AcceptFriend accepts the pending request requesterID sent to addresseeID.
func (s *Service) AcceptFriend(ctx context.Context, addresseeID, requesterID int64) (string, error) {
	if err := s.store.Accept(ctx, requesterID, addresseeID); err != nil {
		return "", err
	}
	s.pub.ToUser(ctx, requesterID, notify.EventFriendAccepted, map[string]interface{}{"friend_id": addresseeID})
	return "friend request accepted", nil
}

// RemoveFriend deletes the relationship with otherID, pending or accepted.
func (s *Service) RemoveFriend(ctx context.Context, userID, otherID int64) (string, error) {
	if err := s.store.Remove(ctx, userID, otherID); err != nil {
		return "", err
	}
	s.pub.ToUser(ctx, otherID, notify.EventFriendRemoved, map[string]interface{}{"friend_id": userID})
	return "friendship removed", nil
}

// ListFriendsView returns userID's friends, received and sent requests with
// profile data. Edges pointing at users that no longer exist are skipped.
func (s *Service) ListFriendsView(ctx context.Context, userID int64) (*View, error) {
	accepted, err := s.store.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.store.ListPendingSent(ctx, userID)
	if err != nil {
		return nil, err
	}

	all := make([]int64, 0, len(accepted)+len(pending)+len(sent))
	all = append(all, accepted...)
	all = append(all, pending...)
	all = append(all, sent...)
	users, err := s.dir.GetMany(ctx, all)
	if err != nil {
		return nil, err
	}

	join := func(ids []int64) []Friend {
		out := make([]Friend, 0, len(ids))
		for _, id := range ids {
			u, ok := users[id]
			if !ok {
				s.log.Debug("friends: skipping missing user", zap.Int64("user_id", id))
				continue
			}
			out = append(out, Friend{
				ID:        u.ID,
				Username:  u.Username,
				AvatarURL: u.AvatarURL,
				Role:      u.Role,
				Status:    u.Status,
				Online:    s.presence.IsOnline(ctx, u.ID),
			})
		}
		return out
	}
	return &View{
		Friends: join(accepted),
		Pending: join(pending),
		Sent:    join(sent),
	}, nil
}
