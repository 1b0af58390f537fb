/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T) (*Registry, *Metrics) {
	t.Helper()

	metrics := NewMetrics(prometheus.NewRegistry())

	return NewRegistry(time.Hour, metrics, zaptest.NewLogger(t)), metrics
}

func newTestGateway(t *testing.T) (*Gateway, *Registry, *Metrics) {
	t.Helper()

	reg, metrics := newTestRegistry(t)

	return NewGateway(reg, metrics, zaptest.NewLogger(t), 16), reg, metrics
}

func testClient(id string) *Client {
	return newClient(id, nil, 16)
}

// drain returns everything queued for c without blocking.
func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func intPtr(i int) *int {
	return &i
}
