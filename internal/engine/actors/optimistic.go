package actors

import (
	stdctx "context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Optimistic write protocol shared by the feed, review, favorite and
// social actors. The actor mutates its in-memory mirror first and
// responds immediately, then the database write runs off the actor
// goroutine. A failed write never patches the mirror back by hand; the
// actor reloads the affected state from the database, which is the
// source of truth.

const remoteWriteTimeout = 5 * time.Second

var (
	optimisticApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "englishtales_optimistic_applied_total",
		Help: "Optimistic mirror mutations applied, by operation.",
	}, []string{"op"})

	optimisticConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "englishtales_optimistic_confirmed_total",
		Help: "Optimistic mutations confirmed by the database, by operation.",
	}, []string{"op"})

	optimisticRolledBack = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "englishtales_optimistic_rolled_back_total",
		Help: "Optimistic mutations discarded after a failed write, by operation.",
	}, []string{"op"})
)

type (
	// remoteWriteOKMsg and remoteWriteFailedMsg report the outcome of a
	// write-through back to the owning actor.
	remoteWriteOKMsg struct {
		Op string
	}

	// Refetch is the reload message for the mirror scope the failed write
	// touched. The owning actor sends it to itself so the optimistic delta
	// is discarded in favor of the stored state. Nil when the op mutated no
	// mirror.
	remoteWriteFailedMsg struct {
		Op      string
		Err     error
		Refetch interface{}
	}

	// applyMirrorMsg carries a mirror update computed off the actor
	// goroutine (a refetch result) back into it. Only the owning actor
	// ever runs Apply, so mirror state stays single-writer.
	applyMirrorMsg struct {
		Apply func()
	}
)

// writeThrough runs remote off the actor goroutine and sends the outcome
// back to the actor. Call it after the mirror mutation has been applied
// and the caller has been answered. refetch names the reload message for
// the mirror scope the op touched; pass nil when the op mutated no mirror
// (or when a dropped write is acceptable, like a debounced progress save).
func writeThrough(context actor.Context, op string, refetch interface{}, remote func(ctx stdctx.Context) error) {
	optimisticApplied.WithLabelValues(op).Inc()

	self := context.Self()
	root := context.ActorSystem().Root

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		if err := remote(ctx); err != nil {
			root.Send(self, &remoteWriteFailedMsg{Op: op, Err: err, Refetch: refetch})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: op})
	}()
}

// failedWrite is the shared remoteWriteFailedMsg handling: count the
// rollback and kick off the reload of the affected mirror scope.
func failedWrite(context actor.Context, msg *remoteWriteFailedMsg) {
	rollbackWrite(msg.Op, msg.Err)
	if msg.Refetch != nil {
		context.Send(context.Self(), msg.Refetch)
	}
}

// reloadMirror runs load off the actor goroutine and, on success, sends
// the returned closure back to the actor to apply. Load errors are only
// logged; the mirror keeps its current (possibly stale) state until the
// next successful load.
func reloadMirror(context actor.Context, what string, load func(ctx stdctx.Context) (func(), error)) {
	self := context.Self()
	root := context.ActorSystem().Root

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		apply, err := load(ctx)
		if err != nil {
			log.Printf("Failed to reload %s after write failure: %v", what, err)
			return
		}
		root.Send(self, &applyMirrorMsg{Apply: apply})
	}()
}

func confirmWrite(op string) {
	optimisticConfirmed.WithLabelValues(op).Inc()
}

func rollbackWrite(op string, err error) {
	optimisticRolledBack.WithLabelValues(op).Inc()
	log.Printf("Remote write %s failed, discarding optimistic state: %v", op, err)
}
