// Package kafkaconsumer drops cached layer bodies when refresh events
// arrive on the capa-refresh topic.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/cache"
	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/invalidation"
	"github.com/iberiaforestal/afecciones-carm/internal/observability"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

type Consumer struct {
	cfg      Config
	store    cache.Store
	catalogo []capas.Capa
	base     string
	log      *zerolog.Logger
}

func New(cfg Config, store cache.Store, catalogo []capas.Capa, base string, log *zerolog.Logger) *Consumer {
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 10 * time.Second
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = 3 * time.Second
	}
	if cfg.RebalanceTimeout == 0 {
		cfg.RebalanceTimeout = 60 * time.Second
	}
	return &Consumer{cfg: cfg, store: store, catalogo: catalogo, base: base, log: log}
}

// Start consumes refresh events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("kafkaconsumer: missing cache store")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.log.Info().Strs("brokers", c.cfg.Brokers).
		Str("topic", c.cfg.Topic).Str("group", c.cfg.GroupID).
		Msg("consumidor de refrescos arrancando")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("consumidor de refrescos parando")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.log.Error().Err(err).Str("topic", c.cfg.Topic).Msg("error de consumidor")
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single refresh message. Purges are idempotent, a
// replayed event deletes keys that are already gone.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.ObserveInvalidation("", err)
		c.log.Error().Str("topic", msg.Topic).
			Int32("partition", msg.Partition).Int64("offset", msg.Offset).
			Err(err).Msg("evento ilegible")
		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		observability.ObserveInvalidation(ev.Capa, err)
		return fmt.Errorf("validate: %w", err)
	}

	keys := c.keysFor(ev.Capa)
	if len(keys) == 0 {
		c.log.Debug().Str("capa", ev.Capa).Msg("capa desconocida, nada que purgar")
		observability.ObserveInvalidation(ev.Capa, nil)
		return nil
	}

	if err := c.store.Del(ctx, keys...); err != nil {
		observability.ObserveInvalidation(ev.Capa, err)
		return fmt.Errorf("cache del: %w", err)
	}
	observability.ObserveInvalidation(ev.Capa, nil)
	c.log.Info().Str("capa", ev.Capa).Int("keys", len(keys)).Msg("capa purgada")
	return nil
}

func (c *Consumer) keysFor(id string) []string {
	if id == invalidation.CapaTodas {
		keys := make([]string, 0, len(c.catalogo))
		for _, capa := range c.catalogo {
			keys = append(keys, cache.Key(capa.URL(c.base)))
		}
		return keys
	}
	capa, ok := capas.Por(c.catalogo, id)
	if !ok {
		return nil
	}
	return []string{cache.Key(capa.URL(c.base))}
}

type groupHandler struct {
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		// bad events are logged and skipped, the offset still advances
		_ = h.process(sess.Context(), msg)
		sess.MarkMessage(msg, "")
	}
	return nil
}
