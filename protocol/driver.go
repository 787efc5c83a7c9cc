package protocol

import (
	"context"
	"fmt"

	"github.com/jabolina/sync-runtime/internal/logging"
	"golang.org/x/sync/errgroup"
)

// SyncDriver orchestrates the stage sequence for one joining peer:
// replays cached state through the router, awaits per-stage completion,
// and drains the peer's queue between stages.
type SyncDriver struct {
	peer       *Peer
	session    *Session
	router     *Router
	reconciler *AnimationReconciler
	log        logging.Logger
}

// NewSyncDriver builds a driver for peer within session, routing
// through router and reconciling animation state through reconciler.
func NewSyncDriver(peer *Peer, session *Session, router *Router, reconciler *AnimationReconciler, log logging.Logger) *SyncDriver {
	return &SyncDriver{peer: peer, session: session, router: router, reconciler: reconciler, log: log}
}

// Run drives the peer through every stage in Sequence, in order. A
// failed stage fails the whole sync: no partial state is exposed, and
// the peer is treated as never having joined.
func (d *SyncDriver) Run(ctx context.Context) error {
	d.peer.Stage.Begin(StageAlways)

	if d.session.PeerAuthoritative {
		for _, stage := range Sequence {
			d.peer.Stage.Begin(stage)
			if err := d.execute(ctx, stage); err != nil {
				return fmt.Errorf("peer %s: stage %s failed: %w", d.peer.ID, stage, err)
			}
			d.peer.Stage.Complete(stage)
			if err := d.drainQueue(ctx); err != nil {
				return fmt.Errorf("peer %s: queue drain after stage %s failed: %w", d.peer.ID, stage, err)
			}
		}
	}

	d.peer.Stage.Complete(StageAlways)
	if err := d.router.Send(ctx, NewMessage(DiscSyncComplete, nil), nil); err != nil {
		return fmt.Errorf("peer %s: failed sending sync-complete: %w", d.peer.ID, err)
	}
	if err := d.drainQueue(ctx); err != nil {
		return fmt.Errorf("peer %s: final queue drain failed: %w", d.peer.ID, err)
	}

	d.log.Infof("peer %s: sync complete", d.peer.ID)
	return nil
}

// execute dispatches to the per-stage driver.
func (d *SyncDriver) execute(ctx context.Context, stage Stage) error {
	switch stage {
	case StageLoadAssets:
		return d.executeLoadAssets(ctx)
	case StageCreateActors:
		return d.executeCreateActors(ctx)
	case StageSetBehaviors:
		return d.executeSetBehaviors(ctx)
	case StageCreateAnimations:
		return d.executeCreateAnimations(ctx)
	case StageSyncAnimations:
		return d.executeSyncAnimations(ctx)
	default:
		return fmt.Errorf("unreachable stage in sequence: %s", stage)
	}
}

// sendAndAwait sends message expecting a reply and blocks for it,
// through the router so classification still applies (a replayed
// cached message behaves exactly like live traffic of the same
// discriminant).
func (d *SyncDriver) sendAndAwait(ctx context.Context, message Message) (*Message, error) {
	reply := NewReplyContinuation()
	if err := d.router.Send(ctx, message, reply); err != nil {
		return nil, err
	}
	return reply.Await(ctx)
}

// executeLoadAssets: send-and-await every cached load-asset message in
// parallel, then sequentially send every cached asset-update payload
// (no reply expected).
func (d *SyncDriver) executeLoadAssets(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, asset := range d.session.Cache.Assets() {
		asset := asset
		g.Go(func() error {
			_, err := d.sendAndAwait(gctx, asset)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, update := range d.session.Cache.AssetUpdates() {
		if err := d.router.Send(ctx, update, nil); err != nil {
			return err
		}
	}
	return nil
}

// executeCreateActors: depth-first recursive send-and-await of each
// cached root actor's created message, fanning out to siblings only
// after the parent's own reply has been observed — a child's actor id
// references its parent's, so the parent must exist server-side first.
func (d *SyncDriver) executeCreateActors(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, root := range d.session.Cache.RootActors() {
		root := root
		g.Go(func() error {
			return d.createActorSubtree(gctx, root)
		})
	}
	return g.Wait()
}

func (d *SyncDriver) createActorSubtree(ctx context.Context, actor CachedActor) error {
	if _, err := d.sendAndAwait(ctx, actor.CreatedMessage); err != nil {
		return fmt.Errorf("actor %s: %w", actor.ActorID, err)
	}

	children := d.session.Cache.ChildrenOf(actor.ActorID)
	if len(children) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, child := range children {
		child := child
		g.Go(func() error {
			return d.createActorSubtree(gctx, child)
		})
	}
	return g.Wait()
}

// executeSetBehaviors: for every cached actor with a non-empty
// behavior, send a set-behavior payload. No replies awaited.
func (d *SyncDriver) executeSetBehaviors(ctx context.Context) error {
	for _, actor := range d.session.Cache.Actors() {
		if actor.Behavior == nil || *actor.Behavior == "" {
			continue
		}
		body, err := encodeSetBehavior(actor.ActorID, *actor.Behavior)
		if err != nil {
			return err
		}
		message := Message{Discriminant: DiscSetBehavior, ID: actor.CreatedMessage.ID, Body: body, ActorID: actor.ActorID}
		if err := d.router.Send(ctx, message, nil); err != nil {
			return err
		}
	}
	return nil
}

// executeCreateAnimations: forward every active interpolation with its
// enabled flag forced false, then send-and-await every created
// animation's message.
func (d *SyncDriver) executeCreateAnimations(ctx context.Context) error {
	for _, actor := range d.session.Cache.Actors() {
		for _, interpolation := range actor.ActiveInterpolations {
			disabled := withEnabledForced(interpolation, false)
			if err := d.router.Send(ctx, disabled, nil); err != nil {
				return err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, actor := range d.session.Cache.Actors() {
		for _, animation := range actor.CreatedAnimations {
			animation := animation
			g.Go(func() error {
				_, err := d.sendAndAwait(gctx, animation.Message)
				return err
			})
		}
	}
	return g.Wait()
}

// executeSyncAnimations: no-op if this peer is authoritative; otherwise
// delegate to the reconciler.
func (d *SyncDriver) executeSyncAnimations(ctx context.Context) error {
	if d.peer.Authoritative() {
		return nil
	}
	authoritative := d.session.AuthoritativeClient
	if authoritative == nil {
		return ErrAuthoritativePeerUnavailable
	}
	return d.reconciler.Reconcile(ctx, d.peer, authoritative)
}

// drainQueue repeatedly pulls every now-allowed entry off the queue and
// sends it, until nothing is taken.
// Terminates because each iteration strictly reduces the queue — every
// taken entry was `allow` and never re-enters — or the loop stalls,
// which only happens between stage transitions (the next Begin/Complete
// is what makes further progress possible).
//
// Each batch is sent in strict queue order, one entry at a time: the
// queue's whole purpose is preserving the order the application emitted
// messages in, so a later actor-update can't race ahead of an earlier
// one just because this drain happened to parallelize transport writes.
// router.Send already blocks for a reply when the entry expects one, so
// sequential dispatch here is also what correlates each reply to the
// right continuation without any extra bookkeeping.
func (d *SyncDriver) drainQueue(ctx context.Context) error {
	for {
		taken := d.peer.Queue.Filter(func(m QueuedMessage) bool {
			return d.router.Route(m.Message) == HandlingAllow
		})
		if len(taken) == 0 {
			return nil
		}

		for _, m := range taken {
			if err := d.router.Send(ctx, m.Message, m.Reply); err != nil {
				return err
			}
		}
	}
}
