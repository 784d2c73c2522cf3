package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Applier applies a single CMS event against the primary database.
type Applier interface {
	Apply(ctx context.Context, ev CmsEvent) error
}

// syncWorkers is the number of ordered lanes in the dispatcher. Events for
// the same entity always land in the same lane, so rapid create/update/delete
// sequences for one entry apply in arrival order while distinct entries
// proceed in parallel.
const syncWorkers = 8

type syncJob struct {
	ev CmsEvent
	d  amqp.Delivery
}

// StartCmsSyncConsumer consumes the cms.sync queue and applies events through
// the given Applier. Delivery acknowledgment happens after the apply, so the
// broker redelivers on crash (at-least-once; the upserts are idempotent).
// Like the notification consumer it reconnects forever with backoff.
func StartCmsSyncConsumer(applier Applier) error {
	lanes := make([]chan syncJob, syncWorkers)
	for i := range lanes {
		lanes[i] = make(chan syncJob, 64)
		go syncWorker(applier, lanes[i])
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("cms-sync: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := dispatchLoop(conn, lanes); err != nil {
			log.Printf("cms-sync: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func dispatchLoop(conn *amqp.Connection, lanes []chan syncJob) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(len(lanes)*16, 0, false); err != nil {
		log.Printf("cms-sync: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(CmsSyncQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(CmsSyncQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev CmsEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("cms-sync: malformed event: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		lanes[laneFor(ev.EntityKey(), len(lanes))] <- syncJob{ev: ev, d: d}
	}
	return fmt.Errorf("deliveries channel closed")
}

// laneFor maps an entity key onto a worker lane with FNV-1a.
func laneFor(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func syncWorker(applier Applier, jobs <-chan syncJob) {
	for j := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := applier.Apply(ctx, j.ev)
		cancel()
		if err != nil {
			log.Printf("cms-sync: apply %s %s failed: %v", j.ev.Event, j.ev.EntityKey(), err)
			_ = j.d.Nack(false, false)
			continue
		}
		_ = j.d.Ack(false)
	}
}
