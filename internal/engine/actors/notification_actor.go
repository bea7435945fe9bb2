package actors

import (
	stdctx "context"
	"log"
	"time"

	"english-tales/internal/database"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Pusher delivers a payload to a connected user, if they are connected.
// The websocket hub implements it.
type Pusher interface {
	Push(userID string, payload interface{})
}

// Message types for notifications
type (
	AddNotificationMsg struct {
		RecipientID uuid.UUID
		ActorID     uuid.UUID
		ActorName   string
		Kind        models.NotificationKind
		RefID       string
	}

	GetNotificationsMsg struct {
		UserID uuid.UUID
		Limit  int
	}

	MarkNotificationReadMsg struct {
		UserID         uuid.UUID
		NotificationID uuid.UUID
	}

	MarkAllNotificationsReadMsg struct {
		UserID uuid.UUID
	}
)

// NotificationActor persists notifications and pushes them to connected
// clients. It keeps no mirror; notification lists are read rarely and
// always from the database.
type NotificationActor struct {
	db     database.DBAdapter
	pusher Pusher
}

func NewNotificationActor(db database.DBAdapter, pusher Pusher) actor.Actor {
	return &NotificationActor{db: db, pusher: pusher}
}

func (a *NotificationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("NotificationActor started with PID: %v", context.Self())

	case *AddNotificationMsg:
		a.handleAdd(context, msg)

	case *GetNotificationsMsg:
		a.handleGet(context, msg)

	case *MarkNotificationReadMsg:
		a.handleMarkRead(context, msg)

	case *MarkAllNotificationsReadMsg:
		a.handleMarkAllRead(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)

	default:
		log.Printf("NotificationActor: Unknown message type %T", msg)
	}
}

func (a *NotificationActor) handleAdd(context actor.Context, msg *AddNotificationMsg) {
	notification := &models.Notification{
		ID:          uuid.New(),
		RecipientID: msg.RecipientID,
		ActorID:     msg.ActorID,
		ActorName:   msg.ActorName,
		Kind:        msg.Kind,
		RefID:       msg.RefID,
		CreatedAt:   time.Now(),
	}

	if a.pusher != nil {
		a.pusher.Push(msg.RecipientID.String(), notification)
	}

	writeThrough(context, "save_notification", nil, func(ctx stdctx.Context) error {
		return a.db.SaveNotification(ctx, notification)
	})
}

func (a *NotificationActor) handleGet(context actor.Context, msg *GetNotificationsMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	notifications, err := a.db.GetUserNotifications(ctx, msg.UserID, msg.Limit)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(notifications)
}

func (a *NotificationActor) handleMarkRead(context actor.Context, msg *MarkNotificationReadMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	context.Respond(true)
	notificationID := msg.NotificationID
	writeThrough(context, "mark_notification_read", nil, func(ctx stdctx.Context) error {
		return a.db.MarkNotificationRead(ctx, notificationID)
	})
}

func (a *NotificationActor) handleMarkAllRead(context actor.Context, msg *MarkAllNotificationsReadMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	context.Respond(true)
	userID := msg.UserID
	writeThrough(context, "mark_all_notifications_read", nil, func(ctx stdctx.Context) error {
		return a.db.MarkAllNotificationsRead(ctx, userID)
	})
}
