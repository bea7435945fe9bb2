package engine

import (
	"english-tales/internal/database"
	"english-tales/internal/engine/actors"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	userActor         *actor.PID
	feedActor         *actor.PID
	reviewActor       *actor.PID
	favoriteActor     *actor.PID
	socialActor       *actor.PID
	progressActor     *actor.PID
	notificationActor *actor.PID
}

// NewEngine spawns one actor per domain. The notification actor goes
// first so the social actor can fan notifications into it.
func NewEngine(system *actor.ActorSystem, db database.DBAdapter, metrics *utils.MetricsCollector,
	pusher actors.Pusher, tokenFn actors.TokenFunc) *Engine {

	context := system.Root

	notificationPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewNotificationActor(db, pusher)
	}))

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(db, metrics, tokenFn)
	}))

	feedPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFeedActor(db, metrics)
	}))

	reviewPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReviewActor(db, metrics)
	}))

	favoritePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFavoriteActor(db, metrics)
	}))

	socialPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewSocialActor(db, metrics, notificationPID)
	}))

	progressPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewProgressActor(db, metrics)
	}))

	return &Engine{
		userActor:         userPID,
		feedActor:         feedPID,
		reviewActor:       reviewPID,
		favoriteActor:     favoritePID,
		socialActor:       socialPID,
		progressActor:     progressPID,
		notificationActor: notificationPID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetFeedActor returns the PID of the feed actor
func (e *Engine) GetFeedActor() *actor.PID {
	return e.feedActor
}

// GetReviewActor returns the PID of the review actor
func (e *Engine) GetReviewActor() *actor.PID {
	return e.reviewActor
}

// GetFavoriteActor returns the PID of the favorite actor
func (e *Engine) GetFavoriteActor() *actor.PID {
	return e.favoriteActor
}

// GetSocialActor returns the PID of the social actor
func (e *Engine) GetSocialActor() *actor.PID {
	return e.socialActor
}

// GetProgressActor returns the PID of the progress actor
func (e *Engine) GetProgressActor() *actor.PID {
	return e.progressActor
}

// GetNotificationActor returns the PID of the notification actor
func (e *Engine) GetNotificationActor() *actor.PID {
	return e.notificationActor
}
