package kafkaconsumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/cache"
	"github.com/iberiaforestal/afecciones-carm/internal/cache/memstore"
	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/invalidation"
)

const base = "https://geoserver.test"

func seedStore(t *testing.T, catalogo []capas.Capa) cache.Store {
	t.Helper()
	store := memstore.New(32, time.Hour)
	for _, c := range catalogo {
		if err := store.Set(context.Background(), cache.Key(c.URL(base)), []byte("{}"), time.Hour); err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}
	return store
}

func message(t *testing.T, ev invalidation.Event) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "capa-refresh", Value: raw}
}

func TestProcessOne_PurgaUnaCapa(t *testing.T) {
	catalogo := capas.Catalogo()
	store := seedStore(t, catalogo)
	log := zerolog.Nop()
	c := New(Config{Topic: "capa-refresh"}, store, catalogo, base, &log)

	ev := invalidation.Event{Version: 1, Op: "refresh", Capa: "zepa", TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	zepa, _ := capas.Por(catalogo, "zepa")
	if _, ok := store.Get(context.Background(), cache.Key(zepa.URL(base))); ok {
		t.Fatal("zepa body still cached after refresh")
	}
	lic, _ := capas.Por(catalogo, "lic")
	if _, ok := store.Get(context.Background(), cache.Key(lic.URL(base))); !ok {
		t.Fatal("unrelated layer was purged")
	}
}

func TestProcessOne_PurgaTodas(t *testing.T) {
	catalogo := capas.Catalogo()
	store := seedStore(t, catalogo)
	log := zerolog.Nop()
	c := New(Config{Topic: "capa-refresh"}, store, catalogo, base, &log)

	ev := invalidation.Event{Version: 1, Op: "refresh", Capa: invalidation.CapaTodas, TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	for _, capa := range catalogo {
		if _, ok := store.Get(context.Background(), cache.Key(capa.URL(base))); ok {
			t.Fatalf("capa %s still cached after global refresh", capa.ID)
		}
	}
}

func TestProcessOne_EventoInvalido(t *testing.T) {
	catalogo := capas.Catalogo()
	store := seedStore(t, catalogo)
	log := zerolog.Nop()
	c := New(Config{Topic: "capa-refresh"}, store, catalogo, base, &log)

	bad := invalidation.Event{Version: 1, Op: "delete", Capa: "zepa", TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, bad)); err == nil {
		t.Fatal("expected validation error")
	}
	if err := c.ProcessOne(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")}); err == nil {
		t.Fatal("expected decode error")
	}

	zepa, _ := capas.Por(catalogo, "zepa")
	if _, ok := store.Get(context.Background(), cache.Key(zepa.URL(base))); !ok {
		t.Fatal("invalid event purged the cache")
	}
}

func TestProcessOne_CapaDesconocidaEsNoOp(t *testing.T) {
	catalogo := capas.Catalogo()
	store := seedStore(t, catalogo)
	log := zerolog.Nop()
	c := New(Config{Topic: "capa-refresh"}, store, catalogo, base, &log)

	ev := invalidation.Event{Version: 1, Op: "refresh", Capa: "inexistente", TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("unknown layer should be a no-op, got %v", err)
	}
}
