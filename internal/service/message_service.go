package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialnest/internal/models"
	"socialnest/internal/repository"
)

const (
	maxMessageLen      = 5000
	conversationLength = 100
)

type MessageService struct {
	store repository.Store
	pub   Publisher
}

func NewMessageService(store repository.Store, pub Publisher) *MessageService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &MessageService{store: store, pub: pub}
}

// Conversation returns the last messages between userID and username, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID uint, username string, limit int) ([]models.Message, error) {
	other, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if other.ID == userID {
		return nil, models.NewValidationError("You cannot message yourself")
	}
	if limit <= 0 || limit > conversationLength {
		limit = conversationLength
	}
	return s.store.Messages().Conversation(ctx, userID, other.ID, limit)
}

type SendMessageInput struct {
	SenderID uint
	To       string
	Content  string
}

// Send appends a message and notifies the receiver.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}

	msg := &models.Message{SenderID: in.SenderID, Content: content}
	var (
		sender *models.User
		note   *models.Notification
	)
	err := runAtomic(ctx, s.store, "SendMessage", func(tx repository.Store) error {
		receiver, err := tx.Users().GetByUsername(ctx, in.To)
		if err != nil {
			return err
		}
		if receiver.ID == in.SenderID {
			return models.NewValidationError("You cannot message yourself")
		}
		sender, err = tx.Users().GetByID(ctx, in.SenderID)
		if err != nil {
			return err
		}
		msg.ReceiverID = receiver.ID
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return err
		}
		msg.Sender = *sender
		msg.Receiver = *receiver
		note = Fanout(models.NotificationDM, sender, receiver, nil)
		return emit(ctx, tx, note)
	})
	if err != nil {
		return nil, err
	}
	deliver(ctx, s.pub, sender, note)
	return msg, nil
}
