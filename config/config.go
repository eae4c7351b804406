// Package config loads the runtime's configuration surface from an INI
// file via gopkg.in/ini.v1, picked from the wider Go ecosystem rather than
// the retrieved corpus: none of the pack's repos load daemon config from
// INI, but the section/key shape here (one section per subsystem) mirrors
// the way those repos split a flat config struct along component lines.
package config

import (
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/ini.v1"

	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/hub"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const op = "config"

// Config is every external knob the hub, wheel, allocator, and packet
// pipeline expose for tuning.
type Config struct {
	// Hub (C2)
	MaxConnections            int
	RejectPolicy              string // "reject_new" | "drop_oldest_anonymous"
	MaxUsernameLength         int
	TrimUsernames             bool
	BroadcastBatchSize        int
	ParallelDisconnectDegree  int
	UnregisterDrainMillis     int
	InitialConnectionCapacity int
	InitialUsernameCapacity   int

	// Wheel (C3)
	TickDurationMs   int64
	WheelSize        int64
	TcpIdleTimeoutMs int64

	// Allocator (C4)
	StackAllocLimit   int
	HeapAllocLimit    int
	CleanupIntervalMs int64
	UnusedThresholdMs int64

	// Packet pipeline (C1)
	PacketSizeLimit  int
	CompressMinBytes int

	// Ambient
	EnableTraceLogs bool
}

// Default returns the documented baseline defaults: a 15s sweeper
// interval, 45s unused threshold, 512-byte compression floor, and
// otherwise reasonable values for a small service.
func Default() *Config {
	return &Config{
		MaxConnections:            10_000,
		RejectPolicy:              "reject_new",
		MaxUsernameLength:         32,
		TrimUsernames:             true,
		BroadcastBatchSize:        256,
		ParallelDisconnectDegree:  32,
		UnregisterDrainMillis:     500,
		InitialConnectionCapacity: 1024,
		InitialUsernameCapacity:   1024,
		TickDurationMs:            100,
		WheelSize:                 512,
		TcpIdleTimeoutMs:          60_000,
		StackAllocLimit:           4 * cmn.KiB,
		HeapAllocLimit:            1 * cmn.MiB,
		CleanupIntervalMs:         15_000,
		UnusedThresholdMs:         45_000,
		PacketSizeLimit:           64 * cmn.KiB,
		CompressMinBytes:          512,
		EnableTraceLogs:           false,
	}
}

// Load reads an INI file at path, overlaying its [hub]/[wheel]/[alloc]/
// [packet] sections on top of Default().
func Load(path string) (*Config, error) {
	c := Default()
	f, err := ini.Load(path)
	if err != nil {
		return nil, cmn.NewErr(op+".Load", cmn.KindValidation, "failed to read config file", err)
	}

	if s := f.Section("hub"); s != nil {
		mustInt(s, "max_connections", &c.MaxConnections)
		if k := s.Key("reject_policy"); k.String() != "" {
			c.RejectPolicy = k.String()
		}
		mustInt(s, "max_username_length", &c.MaxUsernameLength)
		c.TrimUsernames = s.Key("trim_usernames").MustBool(c.TrimUsernames)
		mustInt(s, "broadcast_batch_size", &c.BroadcastBatchSize)
		mustInt(s, "parallel_disconnect_degree", &c.ParallelDisconnectDegree)
		mustInt(s, "unregister_drain_millis", &c.UnregisterDrainMillis)
		mustInt(s, "initial_connection_capacity", &c.InitialConnectionCapacity)
		mustInt(s, "initial_username_capacity", &c.InitialUsernameCapacity)
	}
	if s := f.Section("wheel"); s != nil {
		mustInt64(s, "tick_duration_ms", &c.TickDurationMs)
		mustInt64(s, "wheel_size", &c.WheelSize)
		mustInt64(s, "tcp_idle_timeout_ms", &c.TcpIdleTimeoutMs)
	}
	if s := f.Section("alloc"); s != nil {
		mustInt(s, "stack_alloc_limit", &c.StackAllocLimit)
		mustInt(s, "heap_alloc_limit", &c.HeapAllocLimit)
		mustInt64(s, "cleanup_interval_ms", &c.CleanupIntervalMs)
		mustInt64(s, "unused_threshold_ms", &c.UnusedThresholdMs)
	}
	if s := f.Section("packet"); s != nil {
		mustInt(s, "packet_size_limit", &c.PacketSizeLimit)
		mustInt(s, "compress_min_bytes", &c.CompressMinBytes)
	}
	if s := f.Section("log"); s != nil {
		c.EnableTraceLogs = s.Key("enable_trace_logs").MustBool(c.EnableTraceLogs)
	}
	return c, nil
}

func mustInt(s *ini.Section, key string, dst *int) {
	if k, err := s.GetKey(key); err == nil {
		*dst = k.MustInt(*dst)
	}
}

func mustInt64(s *ini.Section, key string, dst *int64) {
	if k, err := s.GetKey(key); err == nil {
		*dst = k.MustInt64(*dst)
	}
}

// HubRejectPolicy maps the string-valued RejectPolicy to hub.RejectPolicy.
func (c *Config) HubRejectPolicy() hub.RejectPolicy {
	if c.RejectPolicy == "drop_oldest_anonymous" {
		return hub.DropOldestAnonymous
	}
	return hub.RejectNew
}

// HubConfig projects the hub-relevant fields into a hub.Config.
func (c *Config) HubConfig() hub.Config {
	return hub.Config{
		MaxConnections:            c.MaxConnections,
		RejectPolicy:              c.HubRejectPolicy(),
		MaxUsernameLength:         c.MaxUsernameLength,
		TrimUsernames:             c.TrimUsernames,
		BroadcastBatchSize:        c.BroadcastBatchSize,
		ParallelDisconnectDegree:  c.ParallelDisconnectDegree,
		UnregisterDrainMillis:     c.UnregisterDrainMillis,
		InitialConnectionCapacity: c.InitialConnectionCapacity,
		InitialUsernameCapacity:   c.InitialUsernameCapacity,
		EnableTraceLogs:           c.EnableTraceLogs,
	}
}

// DumpJSON renders the config for structured debug logging.
func (c *Config) DumpJSON() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}
