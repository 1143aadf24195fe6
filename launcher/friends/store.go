// Package friends holds the friendship graph: the relationship store and the
// social service built on it.
package friends

import (
	"context"
	"errors"

	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/model"
	"gorm.io/gorm"
)

// Store persists relationship edges. At most one edge exists per unordered
// pair of users; the pair index enforces it.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func pair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindEdge returns the edge between a and b in either direction, or nil.
func (s *Store) FindEdge(ctx context.Context, a, b int64) (*model.Friendship, error) {
	lo, hi := pair(a, b)
	var f model.Friendship
	err := s.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", lo, hi).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &f, nil
}

// CreatePending records a friend request from requester to addressee.
func (s *Store) CreatePending(ctx context.Context, requester, addressee int64) (*model.Friendship, error) {
	if requester == addressee {
		return nil, apperr.ErrSelfReference
	}
	existing, err := s.FindEdge(ctx, requester, addressee)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrConflict
	}

	f := &model.Friendship{
		RequesterID: requester,
		AddresseeID: addressee,
		Status:      model.FriendshipPending,
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		// A concurrent request for the same pair won the race.
		if dbadapter.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal(err)
	}
	return f, nil
}

// Accept turns the pending request requesterID → addresseeID into a
// friendship. Only the addressee may accept, so swapped ids do not match.
func (s *Store) Accept(ctx context.Context, requesterID, addresseeID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("requester_id = ? AND addressee_id = ? AND status = ?",
			requesterID, addresseeID, model.FriendshipPending).
		Update("status", model.FriendshipAccepted)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Remove deletes the edge between a and b whatever its status or direction.
func (s *Store) Remove(ctx context.Context, a, b int64) error {
	lo, hi := pair(a, b)
	res := s.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", lo, hi).
		Delete(&model.Friendship{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListAccepted returns the ids of userID's friends.
func (s *Store) ListAccepted(ctx context.Context, userID int64) ([]int64, error) {
	var edges []model.Friendship
	err := s.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)", model.FriendshipAccepted, userID, userID).
		Order("id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		if e.RequesterID == userID {
			ids = append(ids, e.AddresseeID)
		} else {
			ids = append(ids, e.RequesterID)
		}
	}
	return ids, nil
}

// ListPendingReceived returns the ids of users waiting for userID to accept.
func (s *Store) ListPendingReceived(ctx context.Context, userID int64) ([]int64, error) {
	return s.pluck(ctx, "requester_id", "addressee_id = ? AND status = ?", userID)
}

// ListPendingSent returns the ids of users userID has asked and is waiting on.
func (s *Store) ListPendingSent(ctx context.Context, userID int64) ([]int64, error) {
	return s.pluck(ctx, "addressee_id", "requester_id = ? AND status = ?", userID)
}

func (s *Store) pluck(ctx context.Context, column, where string, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where(where, userID, model.FriendshipPending).
		Order("id ASC").
		Pluck(column, &ids).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ids, nil
}
