package service

import (
	"context"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

type FollowService struct {
	store repository.Store
	pub   Publisher
}

func NewFollowService(store repository.Store, pub Publisher) *FollowService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &FollowService{store: store, pub: pub}
}

// FollowResult reports whether the call created the edge.
type FollowResult struct {
	Following bool `json:"following"`
	Created   bool `json:"created"`
}

// Follow makes userID follow username. Following again is a no-op.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*FollowResult, error) {
	var (
		actor   *models.User
		note    *models.Notification
		created bool
	)
	err := runAtomic(ctx, s.store, "Follow", func(tx repository.Store) error {
		target, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if target.ID == userID {
			return models.NewValidationError("You cannot follow yourself")
		}
		actor, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		created, err = tx.Follows().Follow(ctx, userID, target.ID)
		if err != nil || !created {
			return err
		}
		note = Fanout(models.NotificationFollow, actor, target, nil)
		return emit(ctx, tx, note)
	})
	if err != nil {
		return nil, err
	}
	deliver(ctx, s.pub, actor, note)
	return &FollowResult{Following: true, Created: created}, nil
}
