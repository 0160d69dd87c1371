// Package statsd emits the gateway's counters and request timings over
// UDP using the DogStatsD line format.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink is the metric surface the gateway emits: decision and validation
// counters plus request timings.
type Sink interface {
	Count(name string, delta int64, tags map[string]string)
	Timing(name string, d time.Duration, tags map[string]string)
}

// Config describes how to reach a StatsD-compatible endpoint. Prefix
// defaults to "clygate" and every line carries a service:clygate tag
// unless overridden through GlobalTags.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

const (
	defaultPrefix = "clygate"
	dialTimeout   = 5 * time.Second
)

// Client writes metric lines to a UDP endpoint. A nil or disabled
// client discards everything, so callers never need to guard emission.
// Safe for concurrent use.
type Client struct {
	prefix string
	tags   map[string]string
	logger *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	enabled bool
}

var _ Sink = (*Client)(nil)

// NewClient dials the configured endpoint. A disabled config or empty
// address yields a no-op client rather than an error.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		prefix: prefixOrDefault(cfg.Prefix),
		tags:   baseTags(cfg.GlobalTags),
		logger: logger,
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	c.conn = conn
	c.enabled = true

	return c, nil
}

// Enabled reports whether the client actively emits metrics.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.conn != nil
}

// Count increments a counter metric.
func (c *Client) Count(name string, delta int64, tags map[string]string) {
	if c == nil {
		return
	}
	c.send(name, strconv.FormatInt(delta, 10)+"|c", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, d time.Duration, tags map[string]string) {
	if c == nil {
		return
	}
	ms := strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', -1, 64)
	c.send(name, ms+"|ms", tags)
}

// Close releases the underlying UDP connection if one was established.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, payload string, tags map[string]string) {
	metric := qualify(c.prefix, name)
	if metric == "" {
		return
	}
	line := metric + ":" + payload + encodeTags(c.tags, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

func prefixOrDefault(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), ".")
	if p == "" {
		return defaultPrefix
	}
	return p
}

func baseTags(extra map[string]string) map[string]string {
	tags := map[string]string{"service": defaultPrefix}
	for k, v := range extra {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		tags[key] = strings.TrimSpace(v)
	}
	return tags
}

// qualify joins the prefix and a cleaned metric name. Spaces and
// slashes become underscores so names survive the line protocol.
func qualify(prefix, name string) string {
	n := strings.TrimSpace(name)
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "/", "_")
	n = strings.Trim(n, ".")
	if n == "" {
		return ""
	}
	return prefix + "." + n
}

// encodeTags merges base and per-call tags (per-call wins) and renders
// them sorted so lines are stable for tests and aggregation.
func encodeTags(base, local map[string]string) string {
	merged := make(map[string]string, len(base)+len(local))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range local {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		merged[key] = strings.TrimSpace(v)
	}
	if len(merged) == 0 {
		return ""
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + merged[k]
	}
	return "|#" + strings.Join(parts, ",")
}
