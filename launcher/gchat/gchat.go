// Package gchat is private messaging between friends.
package gchat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/friends"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const historyLimit = 200

// Message types a client may send.
var messageTypes = map[string]bool{
	"text":  true,
	"image": true,
	"video": true,
	"audio": true,
	"file":  true,
}

// Service sends and reads private conversations.
type Service struct {
	db     *gorm.DB
	store  *friends.Store
	dir    *account.Directory
	pub    *notify.Publisher
	maxLen int
	log    *zap.Logger
}

// NewService creates a Service.
func NewService(db *gorm.DB, store *friends.Store, dir *account.Directory, pub *notify.Publisher, cfg config.LauncherConfig, log *zap.Logger) *Service {
	if cfg.PrivateMaxLen <= 0 {
		cfg.PrivateMaxLen = config.LauncherConfig{}.Defaults().PrivateMaxLen
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, store: store, dir: dir, pub: pub, maxLen: cfg.PrivateMaxLen, log: log}
}

// Send delivers content from senderID to recipientID. Both must be accepted
// friends and the sender must not be banned.
func (s *Service) Send(ctx context.Context, senderID, recipientID int64, content, msgType string, now time.Time) (*model.PrivateMessage, error) {
	if senderID == recipientID {
		return nil, apperr.ErrSelfReference
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("content must not be empty")
	}
	if utf8.RuneCountInString(content) > s.maxLen {
		return nil, apperr.Invalid("content exceeds %d characters", s.maxLen)
	}
	if msgType == "" {
		msgType = "text"
	} else if !messageTypes[msgType] {
		return nil, apperr.Invalid("unknown message type %q", msgType)
	}

	sender, err := s.dir.Get(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if err := account.DenyBanned(sender, now); err != nil {
		return nil, err
	}
	if _, err := s.dir.Get(ctx, recipientID); err != nil {
		return nil, err
	}
	if err := s.requireFriends(ctx, senderID, recipientID); err != nil {
		return nil, err
	}

	msg := &model.PrivateMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		MessageType: msgType,
		CreatedAt:   now.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	s.pub.ToUser(ctx, recipientID, notify.EventPrivateMessage, msg)
	s.pub.ToUser(ctx, senderID, notify.EventPrivateMessage, msg)
	return msg, nil
}

// History returns the latest messages between userID and friendID, oldest
// first. It stays readable after the friendship ends.
func (s *Service) History(ctx context.Context, userID, friendID int64) ([]model.PrivateMessage, error) {
	if userID == friendID {
		return nil, apperr.ErrSelfReference
	}
	msgs := []model.PrivateMessage{}
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, friendID, friendID, userID).
		Order("created_at DESC, id DESC").
		Limit(historyLimit).
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead flags every unread message friendID sent to userID as read and
// returns how many changed.
func (s *Service) MarkRead(ctx context.Context, userID, friendID int64) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", friendID, userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internal(res.Error)
	}
	if res.RowsAffected > 0 {
		s.pub.ToUser(ctx, friendID, notify.EventPrivateRead, map[string]interface{}{
			"reader_id": userID,
			"count":     res.RowsAffected,
		})
	}
	return res.RowsAffected, nil
}

// UnreadCounts returns the number of unread messages per sender for userID.
func (s *Service) UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, error) {
	var rows []struct {
		SenderID int64
		N        int64
	}
	err := s.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Select("sender_id, COUNT(*) AS n").
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.SenderID] = r.N
	}
	return out, nil
}

// Typing tells recipientID that userID is typing.
func (s *Service) Typing(ctx context.Context, userID, recipientID int64) error {
	if userID == recipientID {
		return apperr.ErrSelfReference
	}
	if err := s.requireFriends(ctx, userID, recipientID); err != nil {
		return err
	}
	s.pub.ToUser(ctx, recipientID, notify.EventTyping, map[string]interface{}{"user_id": userID})
	return nil
}

func (s *Service) requireFriends(ctx context.Context, a, b int64) error {
	edge, err := s.store.FindEdge(ctx, a, b)
	if err != nil {
		return err
	}
	if edge == nil || edge.Status != model.FriendshipAccepted {
		return apperr.ErrForbidden
	}
	return nil
}
