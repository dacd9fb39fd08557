// Package invalidation defines the capa-refresh event contract. Publishers
// emit one event when a layer's upstream data changed so cached bodies can
// be dropped before their TTL expires.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// CapaTodas refreshes every catalog layer.
const CapaTodas = "*"

type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Capa    string    `json:"capa"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if e.Op != "refresh" {
		return fmt.Errorf("op must be refresh")
	}
	if strings.TrimSpace(e.Capa) == "" {
		return fmt.Errorf("capa is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
