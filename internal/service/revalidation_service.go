package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/observability"
)

const revalidationBufferSize = 16

// ScopeAll subscribes a client to every revalidation scope.
const ScopeAll = "*"

// Revalidator signals presentation-layer caches after successful mutations.
// Implementations must never fail the business operation that triggered them.
type Revalidator interface {
	Invalidate(ctx context.Context, scopes ...string)
	Subscribe(scope string) (<-chan dto.RevalidationEvent, func())
	Start(ctx context.Context)
}

type revalidationService struct {
	redis       *redis.Client
	redisTopic  string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *revalidationBroker
	nodeID      string
	now         func() time.Time
}

type revalidationEnvelope struct {
	Source string                `json:"source"`
	Event  dto.RevalidationEvent `json:"event"`
}

type revalidationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.RevalidationEvent]struct{}
}

// NewRevalidationService constructs the revalidation hook. Redis and NATS are
// both optional; with neither, invalidation stays in-process.
func NewRevalidationService(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) Revalidator {
	topic := ""
	subject := ""
	if channelBase != "" {
		topic = channelBase + ":revalidations"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".revalidations"
	}

	return &revalidationService{
		redis:       redisClient,
		redisTopic:  topic,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "revalidation_service").Logger(),
		broker: &revalidationBroker{
			subscribers: make(map[string]map[chan dto.RevalidationEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *revalidationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisTopic != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *revalidationService) Invalidate(ctx context.Context, scopes ...string) {
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}

		event := dto.RevalidationEvent{
			Scope:     scope,
			EmittedAt: s.now().UTC(),
		}

		s.dropCachedView(ctx, scope)
		s.broker.broadcast(event)
		if err := s.publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("scope", scope).Msg("failed to publish revalidation event")
		}

		observability.Revalidations().WithLabelValues(scopeKind(scope)).Inc()
	}
}

func (s *revalidationService) Subscribe(scope string) (<-chan dto.RevalidationEvent, func()) {
	if strings.TrimSpace(scope) == "" {
		scope = ScopeAll
	}

	channel := make(chan dto.RevalidationEvent, revalidationBufferSize)
	s.broker.subscribe(scope, channel)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(scope, channel)
		observability.SSEClientsActive().Dec()
	}

	return channel, cleanup
}

// dropCachedView deletes the redis cache entry whose key matches the scope.
// Dashboard services key their caches by scope name for exactly this reason.
func (s *revalidationService) dropCachedView(ctx context.Context, scope string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, scope).Err(); err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("failed to drop cached view")
	}
}

func (s *revalidationService) publish(ctx context.Context, event dto.RevalidationEvent) error {
	envelope := revalidationEnvelope{
		Source: s.nodeID,
		Event:  event,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisTopic != "" {
		if err := s.redis.Publish(ctx, s.redisTopic, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *revalidationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisTopic)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("revalidation redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *revalidationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "siakad-revalidations", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats revalidation subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain revalidation nats subscription")
		}
	}()
}

func (s *revalidationService) handleEnvelope(payload []byte) {
	var envelope revalidationEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid revalidation event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.Revalidations().WithLabelValues(scopeKind(envelope.Event.Scope)).Inc()
	s.broker.broadcast(envelope.Event)
}

func scopeKind(scope string) string {
	if idx := strings.IndexByte(scope, ':'); idx > 0 {
		return scope[:idx]
	}
	return scope
}

func (b *revalidationBroker) subscribe(scope string, ch chan dto.RevalidationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[scope]; !exists {
		b.subscribers[scope] = make(map[chan dto.RevalidationEvent]struct{})
	}
	b.subscribers[scope][ch] = struct{}{}
}

func (b *revalidationBroker) unsubscribe(scope string, ch chan dto.RevalidationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[scope]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, scope)
		}
	}
}

func (b *revalidationBroker) broadcast(event dto.RevalidationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for scope, subscribers := range b.subscribers {
		if scope != ScopeAll && scope != event.Scope {
			continue
		}
		for ch := range subscribers {
			select {
			case ch <- event:
			default:
			}
		}
	}
}
