package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/weiawesome/wes-io-chat/internal/audit"
	"github.com/weiawesome/wes-io-chat/internal/conversation"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/idgen"
	"github.com/weiawesome/wes-io-chat/internal/msglog"
	"github.com/weiawesome/wes-io-chat/internal/presence"
	"github.com/weiawesome/wes-io-chat/internal/registry"
	"github.com/weiawesome/wes-io-chat/internal/room"
	"github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/pubsub"
)

type Options struct {
	JoinWindow    int
	PageSize      int
	AnnounceLeave bool
	EventChannel  string
}

// chatService owns all shared chat state behind one mutex. Fan-out happens
// while the mutex is held so that every recipient observes events in the
// same order; it is safe because the deliverer never blocks. Event bus
// publishing happens after the mutex is released.
type chatService struct {
	mu            sync.Mutex
	registry      *registry.Registry
	rooms         *room.Directory
	conversations *conversation.Store

	deliverer domain.Deliverer
	presence  *presence.Broadcaster
	publisher pubsub.Publisher
	opts      Options
}

// NewChatService creates the router. mirror and publisher may be nil; a
// blocking publisher must be wrapped with pubsub.NewAsyncPublisher.
func NewChatService(
	deliverer domain.Deliverer,
	ids idgen.Generator,
	mirror presence.Mirror,
	publisher pubsub.Publisher,
	opts Options,
) ChatService {
	if publisher == nil {
		publisher = pubsub.NoopPublisher{}
	}
	if opts.EventChannel == "" {
		opts.EventChannel = pubsub.DefaultChannel
	}
	stamper := msglog.NewStamper(ids)
	return &chatService{
		registry:      registry.New(),
		rooms:         room.NewDirectory(stamper, room.Options{JoinWindow: opts.JoinWindow, PageSize: opts.PageSize}),
		conversations: conversation.NewStore(stamper),
		deliverer:     deliverer,
		presence:      presence.NewBroadcaster(deliverer, mirror),
		publisher:     publisher,
		opts:          opts,
	}
}

func (s *chatService) Dispatch(ctx context.Context, connID string, req domain.Request) (any, error) {
	switch r := req.(type) {
	case domain.AuthRequest:
		return s.HandleAuth(ctx, connID, r)
	case domain.JoinRoomRequest:
		return s.HandleJoinRoom(ctx, connID, r)
	case domain.LeaveRoomRequest:
		return s.HandleLeaveRoom(ctx, connID, r)
	case domain.SendMessageRequest:
		return s.HandleSendMessage(ctx, connID, r)
	case domain.TypingRequest:
		return nil, s.HandleTyping(ctx, connID, r)
	case domain.ReactRequest:
		return s.HandleReact(ctx, connID, r)
	case domain.ReadRequest:
		return nil, s.HandleRead(ctx, connID, r)
	case domain.FetchOlderRequest:
		return s.HandleFetchOlder(ctx, connID, r)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownEvent, req)
	}
}

func (s *chatService) HandleAuth(ctx context.Context, connID string, req domain.AuthRequest) (*domain.AuthAck, error) {
	s.mu.Lock()
	sess, err := s.registry.Authenticate(connID, req.Username)
	if err != nil {
		s.mu.Unlock()
		audit.Log(ctx, audit.ActionAuthFailed, req.Username, "authentication rejected")
		return nil, err
	}
	online := s.registry.Usernames()
	s.presence.Refresh(online)
	s.mu.Unlock()

	s.publishPresence(ctx, online)
	audit.Log(ctx, audit.ActionAuth, sess.Username, "user authenticated")
	return &domain.AuthAck{Status: domain.StatusOK, SocketID: connID}, nil
}

func (s *chatService) HandleJoinRoom(ctx context.Context, connID string, req domain.JoinRoomRequest) (*domain.JoinAck, error) {
	s.mu.Lock()
	sess, err := s.registry.Resolve(connID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	notice, recent, err := s.rooms.Join(req.Room, connID, sess.Username)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	_ = s.registry.SetRoom(connID, req.Room)
	s.fanOutRoom(req.Room, domain.EventRoomNotification, notice)
	online := s.registry.Usernames()
	s.presence.Refresh(online)
	username := sess.Username
	s.mu.Unlock()

	s.publishPresence(ctx, online)
	audit.LogRoom(ctx, audit.ActionJoinRoom, username, req.Room, "user joined room")
	return &domain.JoinAck{Status: domain.StatusOK, Room: req.Room, Messages: recent}, nil
}

func (s *chatService) HandleLeaveRoom(ctx context.Context, connID string, req domain.LeaveRoomRequest) (*domain.StatusAck, error) {
	s.mu.Lock()
	sess, err := s.registry.Resolve(connID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	name := sess.RoomOr(req.Room)
	left := s.rooms.Leave(name, connID)
	if sess.CurrentRoom == name {
		_ = s.registry.SetRoom(connID, "")
	}
	if left && s.opts.AnnounceLeave {
		notice, err := s.rooms.Post(name, domain.NewNotification(name, fmt.Sprintf("%s left %s", sess.Username, name)))
		if err == nil {
			s.fanOutRoom(name, domain.EventRoomNotification, notice)
		}
	}
	username := sess.Username
	s.mu.Unlock()

	if left {
		audit.LogRoom(ctx, audit.ActionLeaveRoom, username, name, "user left room")
	}
	return domain.OK, nil
}

func (s *chatService) HandleSendMessage(ctx context.Context, connID string, req domain.SendMessageRequest) (*domain.SendAck, error) {
	s.mu.Lock()
	sess, err := s.registry.Resolve(connID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if req.Text == "" && !domain.HasAttachment(req.Image) {
		s.mu.Unlock()
		return nil, domain.ErrEmptyMessage
	}

	var msg *domain.Message
	if req.To != "" {
		msg = domain.NewPrivateMessage(sess.Username, req.To, req.Text, req.Image)
	} else if name := sess.RoomOr(req.Room); name != "" {
		msg = domain.NewRoomMessage(sess.Username, name, req.Text, req.Image)
	} else {
		s.mu.Unlock()
		return nil, domain.ErrRoomRequired
	}
	stored, err := s.post(connID, msg)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pubsub.EventMessageCreated, stored.RoomName(), stored)
	audit.LogMessage(ctx, audit.ActionSendMessage, stored.From, stored.ID, "message sent")
	return &domain.SendAck{Status: domain.StatusOK, Message: stored}, nil
}

// post stores msg in its conversation or room and fans the stored copy out.
// Must be called with s.mu held.
func (s *chatService) post(callerConn string, msg *domain.Message) (*domain.Message, error) {
	if msg.IsPrivate() {
		stored, err := s.conversations.Post(msg.From, msg.Recipient(), msg)
		if err != nil {
			return nil, err
		}
		s.fanOutPair(callerConn, stored.Recipient(), domain.EventPrivateMessage, stored)
		return stored, nil
	}

	stored, err := s.rooms.Post(msg.RoomName(), msg)
	if err != nil {
		return nil, err
	}
	s.fanOutRoom(stored.RoomName(), domain.EventMessageNew, stored)
	return stored, nil
}

func (s *chatService) HandleTyping(ctx context.Context, connID string, req domain.TypingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.registry.Resolve(connID)
	if err != nil {
		return err
	}

	if req.To != "" {
		if target, ok := s.registry.Lookup(req.To); ok {
			s.deliverer.Send(target, req.Event(), &domain.TypingEvent{From: sess.Username, Private: true})
		}
		return nil
	}

	name := sess.RoomOr(req.Room)
	if name == "" {
		return nil
	}
	s.fanOutRoom(name, req.Event(), &domain.TypingEvent{From: sess.Username, Room: name})
	return nil
}

func (s *chatService) HandleReact(ctx context.Context, connID string, req domain.ReactRequest) (*domain.StatusAck, error) {
	s.mu.Lock()
	sess, err := s.registry.Resolve(connID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	switch {
	case req.MessageID == "":
		s.mu.Unlock()
		return nil, domain.ErrMessageNotFound
	case req.Reaction == "":
		s.mu.Unlock()
		return nil, domain.ErrReactionRequired
	}

	var (
		event *domain.ReactionEvent
		name  string
	)
	if req.To != "" {
		msg, findErr := s.conversations.Find(sess.Username, req.To, req.MessageID)
		if findErr != nil {
			s.mu.Unlock()
			return nil, findErr
		}
		event = s.react(msg, req.Reaction, sess.Username)
		s.fanOutPair(connID, req.To, domain.EventReact, event)
	} else {
		name = sess.RoomOr(req.Room)
		msg, ok := s.rooms.Find(name, req.MessageID)
		if !ok {
			s.mu.Unlock()
			return nil, domain.ErrMessageNotFound
		}
		event = s.react(msg, req.Reaction, sess.Username)
		s.fanOutRoom(name, domain.EventReact, event)
	}
	s.mu.Unlock()

	s.publish(ctx, pubsub.EventMessageReacted, name, event)
	return domain.OK, nil
}

func (s *chatService) react(msg *domain.Message, reaction, from string) *domain.ReactionEvent {
	msg.AddReaction(reaction)
	return &domain.ReactionEvent{
		MessageID: msg.ID,
		Reaction:  reaction,
		From:      from,
		Reactions: msg.Clone().Reactions,
	}
}

// HandleRead records a read receipt and notifies the original sender if they
// are online. Receipts for offline senders are dropped, never queued.
func (s *chatService) HandleRead(ctx context.Context, connID string, req domain.ReadRequest) error {
	s.mu.Lock()
	sess, err := s.registry.Resolve(connID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var (
		msg  *domain.Message
		name string
	)
	notify := ""
	if req.To != "" {
		msg, _ = s.conversations.Find(sess.Username, req.To, req.MessageID)
		notify = req.To
	} else {
		name = sess.RoomOr(req.Room)
		msg, _ = s.rooms.Find(name, req.MessageID)
	}
	if msg != nil {
		msg.MarkRead(sess.Username)
		notify = msg.From
	}

	var event *domain.ReadEvent
	if notify != "" && notify != domain.SystemSender {
		event = &domain.ReadEvent{MessageID: req.MessageID, By: sess.Username}
		if msg != nil {
			event.ReadBy = msg.Clone().ReadBy
		}
		if target, ok := s.registry.Lookup(notify); ok {
			s.deliverer.Send(target, domain.EventRead, event)
		}
	}
	s.mu.Unlock()

	if msg != nil && event != nil {
		s.publish(ctx, pubsub.EventMessageRead, name, event)
	}
	return nil
}

func (s *chatService) HandleFetchOlder(ctx context.Context, connID string, req domain.FetchOlderRequest) (*domain.PageAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Resolve(connID); err != nil {
		return nil, err
	}
	return &domain.PageAck{
		Status:   domain.StatusOK,
		Messages: s.rooms.OlderThan(req.Room, req.Before, s.opts.PageSize),
	}, nil
}

// HandleDisconnect releases everything held by connID. It is safe to call
// for connections that never authenticated, and more than once.
func (s *chatService) HandleDisconnect(ctx context.Context, connID string) {
	s.mu.Lock()
	s.rooms.Drop(connID)
	sess, ok := s.registry.Release(connID)
	var online []string
	if ok {
		online = s.registry.Usernames()
		s.presence.Refresh(online)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	s.publishPresence(ctx, online)
	audit.Log(ctx, audit.ActionDisconnect, sess.Username, "user disconnected")
}

func (s *chatService) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Usernames()
}

func (s *chatService) Rooms() []room.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.List()
}

func (s *chatService) RoomHistory(name, before string, limit int) []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.OlderThan(name, before, limit)
}

// fanOutRoom must be called with s.mu held.
func (s *chatService) fanOutRoom(name, event string, payload any) {
	for _, connID := range s.rooms.Members(name) {
		s.deliverer.Send(connID, event, payload)
	}
}

// fanOutPair delivers to the caller's connection and, if online, to the
// connection username routes to. Must be called with s.mu held.
func (s *chatService) fanOutPair(callerConn, username, event string, payload any) {
	if target, ok := s.registry.Lookup(username); ok && target != callerConn {
		s.deliverer.Send(target, event, payload)
	}
	s.deliverer.Send(callerConn, event, payload)
}

func (s *chatService) publishPresence(ctx context.Context, online []string) {
	s.publish(ctx, pubsub.EventPresenceUpdated, "", map[string][]string{"users": online})
}

func (s *chatService) publish(ctx context.Context, eventType, roomID string, payload any) {
	event, err := pubsub.NewEvent(eventType, roomID, payload)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEvent, eventType).Msg("failed to encode bus event")
		return
	}
	if err := s.publisher.Publish(ctx, s.opts.EventChannel, event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldEvent, eventType).Msg("failed to publish bus event")
	}
}
