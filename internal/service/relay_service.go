package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/audit"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/hub"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/registry"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// relayService routes chat frames through the registry and fans
// announcements out over the hub.
type relayService struct {
	hub      *hub.Hub
	registry *registry.Registry
	messages repository.MessageRepository
	now      func() time.Time
}

// NewRelayService creates the relay. It owns reg for its lifetime.
func NewRelayService(h *hub.Hub, reg *registry.Registry, messages repository.MessageRepository) RelayService {
	return &relayService{
		hub:      h,
		registry: reg,
		messages: messages,
		now:      time.Now,
	}
}

// HandleAuth registers the frame's identity for this connection. Re-auth
// overwrites; switching identity releases the previous one.
func (s *relayService) HandleAuth(ctx context.Context, c *hub.Client, frame *domain.AuthFrame) error {
	if frame.UserID == 0 {
		return ErrMissingIdentity
	}
	if verified := c.Session.VerifiedUserID(); verified != 0 && verified != frame.UserID {
		audit.Record(ctx, audit.ActionRelayAuthDenied, verified).Detail(fmt.Sprint(frame.UserID)).Msg("auth frame identity rejected")
		return ErrIdentityMismatch
	}

	previous, ok := c.Session.Authenticate(frame.UserID)
	if !ok {
		return ErrSessionClosed
	}
	if previous != 0 && previous != frame.UserID {
		s.registry.UnregisterIf(previous, c)
	}

	if replaced := s.registry.Register(frame.UserID, c); replaced != nil {
		l := log.Ctx(ctx)
		l.Debug().
			Int64(log.FieldUserID, frame.UserID).
			Str("replaced_conn_id", replaced.ConnID()).
			Msg("identity moved to a newer connection")
	}

	audit.Record(ctx, audit.ActionRelayAuth, frame.UserID).Msg("relay connection authenticated")
	return nil
}

// HandleChat persists the message, then delivers it to the receiver if
// they are connected. Nothing is delivered when persistence fails.
func (s *relayService) HandleChat(ctx context.Context, c *hub.Client, frame *domain.ChatFrame) error {
	l := log.Ctx(ctx)

	senderID, state := c.Session.Identity()
	switch state {
	case domain.StateClosed:
		return ErrSessionClosed
	case domain.StateUnauthenticated:
		return ErrNotAuthenticated
	}
	if frame.ReceiverID == 0 {
		return ErrMissingReceiver
	}

	msg := &domain.ChatMessage{
		SenderID:   senderID,
		ReceiverID: frame.ReceiverID,
		Content:    frame.Content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist chat message: %w", err)
	}

	audit.Record(ctx, audit.ActionRelayChat, senderID).Target(frame.ReceiverID).Msg("chat message stored")

	conn, ok := s.registry.Lookup(frame.ReceiverID)
	if !ok {
		l.Debug().Int64(log.FieldPeerID, frame.ReceiverID).Msg("receiver offline, delivery skipped")
		return nil
	}

	data, err := json.Marshal(domain.NewChatEvent(msg))
	if err != nil {
		return err
	}
	if !conn.Send(data) {
		l.Warn().
			Int64(log.FieldPeerID, frame.ReceiverID).
			Str("receiver_conn_id", conn.ConnID()).
			Msg("receiver connection unavailable, delivery dropped")
	}
	return nil
}

// HandleDisconnect closes the session and releases its identity unless a
// newer connection has claimed it since. Frames still in flight for the
// session are rejected afterwards.
func (s *relayService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	userID := c.Session.Close()
	if userID == 0 {
		return
	}
	released := s.registry.UnregisterIf(userID, c)
	audit.Record(ctx, audit.ActionRelayDisconnect, userID).Detail(fmt.Sprintf("released=%t", released)).Msg("relay connection closed")
}

// BroadcastNewProduct sends a new_product frame to every open connection.
func (s *relayService) BroadcastNewProduct(ctx context.Context, product *domain.Product) (int, error) {
	n, err := s.hub.Broadcast(domain.NewNewProductEvent(product))
	if err != nil {
		return 0, err
	}

	l := log.Ctx(ctx)
	l.Info().
		Int64(log.FieldProductID, product.ID).
		Int(log.FieldRecipients, n).
		Msg("new product broadcast")
	return n, nil
}
