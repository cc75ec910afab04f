package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// Send appends a message to the thread between sender and recipient and
// notifies the recipient. A message may carry text, a video id, or both.
func (s *Service) Send(ctx context.Context, sender, recipient, text, videoID string) (msg *models.Message, err error) {
	defer func() { observe("send", err) }()

	if err := validate(&models.SendMessageRequest{Text: text, VideoID: videoID}); err != nil {
		return nil, err
	}
	if sender == recipient {
		return nil, invalid("cannot message yourself")
	}
	if _, err := s.accounts.GetAccount(ctx, recipient); err != nil {
		return nil, storageErr("send", err)
	}
	if videoID != "" {
		if _, err := s.videos.GetVideo(ctx, videoID); err != nil {
			return nil, storageErr("send", err)
		}
	}

	msg = &models.Message{
		ID:        primitive.NewObjectID().Hex(),
		ThreadID:  models.ThreadKey(sender, recipient),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		VideoID:   videoID,
		Timestamp: s.now().UTC(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, storageErr("send", err)
	}

	s.notifyBestEffort(ctx, "message", recipient,
		fmt.Sprintf("@%s sent you a message", sender), models.LinkChat, sender)
	return msg, nil
}

// History returns the thread between a and b, oldest first. Messages with
// equal timestamps keep their insertion order.
func (s *Service) History(ctx context.Context, a, b string) ([]models.Message, error) {
	thread, err := s.messages.GetThread(ctx, models.ThreadKey(a, b))
	if err != nil {
		return nil, storageErr("history", err)
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].Timestamp.Before(thread[j].Timestamp)
	})
	return thread, nil
}

// Threads returns the handles h has exchanged messages with, sorted.
func (s *Service) Threads(ctx context.Context, h string) ([]string, error) {
	all, err := s.messages.GetMessages(ctx)
	if err != nil {
		return nil, storageErr("threads", err)
	}
	seen := make(map[string]struct{})
	for _, m := range all {
		switch h {
		case m.Sender:
			seen[m.Recipient] = struct{}{}
		case m.Recipient:
			seen[m.Sender] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// UnreadMessages counts unread messages addressed to h.
func (s *Service) UnreadMessages(ctx context.Context, h string) (int, error) {
	all, err := s.messages.GetMessages(ctx)
	if err != nil {
		return 0, storageErr("unread messages", err)
	}
	n := 0
	for _, m := range all {
		if m.Recipient == h && !m.Read {
			n++
		}
	}
	return n, nil
}

// MarkThreadRead marks every message counterpart sent to reader as read and
// returns how many changed.
func (s *Service) MarkThreadRead(ctx context.Context, reader, counterpart string) (int, error) {
	thread, err := s.messages.GetThread(ctx, models.ThreadKey(reader, counterpart))
	if err != nil {
		return 0, storageErr("mark thread read", err)
	}
	n := 0
	for _, m := range thread {
		if m.Recipient != reader || m.Read {
			continue
		}
		if err := s.messages.MarkAsRead(ctx, m.ID); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return n, storageErr("mark thread read", err)
		}
		n++
	}
	return n, nil
}
