package config

// OperationType selects what a FileOperation does with its origin.
type OperationType string

const (
	OpCopy OperationType = "copy"
	OpMove OperationType = "move"
)

// RateLimit caps the throughput of one operation (or the whole run, for the
// global limit). A zero numeric field means "not set". When Enabled is false
// the numeric fields are ignored entirely.
type RateLimit struct {
	Enabled            bool   `mapstructure:"enabled"`
	BytesPerSecond     uint64 `mapstructure:"bytes_per_second"`
	MegabytesPerMinute uint64 `mapstructure:"megabytes_per_minute"`
}

// ResolvedBPS normalizes the limit to bytes per second. BytesPerSecond wins
// when both fields are set. Returns false when the limit is disabled or
// carries no usable value.
func (r RateLimit) ResolvedBPS() (uint64, bool) {
	if !r.Enabled {
		return 0, false
	}
	if r.BytesPerSecond > 0 {
		return r.BytesPerSecond, true
	}
	if r.MegabytesPerMinute > 0 {
		return r.MegabytesPerMinute * 1024 * 1024 / 60, true
	}
	return 0, false
}

// EffectiveBPS combines an operation's own limit with the global one.
// Neither enabled means unbounded; one enabled means that value; both
// enabled means the minimum, so the global cap can never raise an
// operation's tighter cap and vice versa.
func EffectiveBPS(op, global RateLimit) (uint64, bool) {
	opBPS, opOK := op.ResolvedBPS()
	globalBPS, globalOK := global.ResolvedBPS()

	switch {
	case opOK && globalOK:
		if opBPS < globalBPS {
			return opBPS, true
		}
		return globalBPS, true
	case opOK:
		return opBPS, true
	case globalOK:
		return globalBPS, true
	default:
		return 0, false
	}
}

// FileOperation is one declared source -> destination transfer. Names are
// the report key and need not be unique. The engine treats these as
// read-only.
type FileOperation struct {
	Name        string        `mapstructure:"name"`
	Origin      string        `mapstructure:"origin"`
	Destination string        `mapstructure:"destination"`
	Type        OperationType `mapstructure:"type"`
	RateLimit   RateLimit     `mapstructure:"rate_limit"`
}

// ConfigMap renders the operation under its config key names. viper
// marshals raw structs by lowercased field name, not mapstructure tag, so a
// plan written back as structs would not round-trip through UnmarshalKey.
func (op FileOperation) ConfigMap() map[string]interface{} {
	return map[string]interface{}{
		"name":        op.Name,
		"origin":      op.Origin,
		"destination": op.Destination,
		"type":        string(op.Type),
		"rate_limit": map[string]interface{}{
			"enabled":              op.RateLimit.Enabled,
			"bytes_per_second":     op.RateLimit.BytesPerSecond,
			"megabytes_per_minute": op.RateLimit.MegabytesPerMinute,
		},
	}
}

// ConfigMaps renders a whole plan for persisting under the "operations" key.
func ConfigMaps(operations []FileOperation) []map[string]interface{} {
	maps := make([]map[string]interface{}, len(operations))
	for i, op := range operations {
		maps[i] = op.ConfigMap()
	}
	return maps
}

// WebhookConfig points at an endpoint that receives the run summary after a
// batch completes. Empty endpoint disables notification.
type WebhookConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Key      string `mapstructure:"key"`
}

// WatchConfig tunes watch mode. Durations are strings so the YAML reads as
// "5s" or "1m"; unparseable or empty values fall back to defaults.
type WatchConfig struct {
	SettlingDelay   string `mapstructure:"settling_delay"`
	PollingInterval string `mapstructure:"polling_interval"`
	DisableFsnotify bool   `mapstructure:"disable_fsnotify"`
}
