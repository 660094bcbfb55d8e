package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the top-level FNE configuration tree.
type Config struct {
	Server     ServerConfig           `mapstructure:"server"`
	Network    NetworkConfig          `mapstructure:"network"`
	Web        WebConfig              `mapstructure:"web"`
	Database   DatabaseConfig         `mapstructure:"database"`
	Routing    RoutingConfig          `mapstructure:"routing"`
	RadioIDs   RadioIDConfig          `mapstructure:"radio_ids"`
	Talkgroups TalkgroupConfig        `mapstructure:"talkgroups"`
	Patches    map[string]PatchConfig `mapstructure:"patches"`
	MQTT       MQTTConfig             `mapstructure:"mqtt"`
	Logging    LoggingConfig          `mapstructure:"logging"`
	Metrics    MetricsConfig          `mapstructure:"metrics"`
	Cache      CacheConfig            `mapstructure:"cache"`
}

// CacheConfig configures the optional Redis-backed read-mostly cache
// fronting the radio-ID lookup table (pkg/cache.RadioIDCache).
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl_seconds"`
}

// ServerConfig identifies this FNE instance and selects routing policy.
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`

	// Authoritative, when true, makes this FNE the sole source of grant
	// truth. When false the router still fails closed: grants still
	// require an explicit permit recorded in the grant table rather than
	// bypassing grant state (spec.md §9 Open Question decision).
	Authoritative bool `mapstructure:"authoritative"`

	// DisableGrantSrcIDCheck skips the source-radio-ID check on grant
	// retry, matching legacy interop deployments (spec.md §4.6).
	DisableGrantSrcIDCheck bool `mapstructure:"disable_grant_src_id_check"`

	// KMMPeerID is the peer ID the key-management facility sends
	// INVENTORY_CMD/MODIFY_KEY_CMD traffic to when a patch needs a TEK
	// it doesn't hold (spec.md §4.8). Zero disables the transmit path;
	// requests are logged instead of sent.
	KMMPeerID uint32 `mapstructure:"kmm_peer_id"`
}

// NetworkConfig configures the UDP peer-session transport.
type NetworkConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	BindPort    int    `mapstructure:"bind_port"`
	Passphrase  string `mapstructure:"passphrase"`

	PingTime       int `mapstructure:"ping_time"`        // seconds between expected pings
	MaxMissedPings int `mapstructure:"max_missed_pings"` // missed pings before peer destruction

	GrantHangtime int `mapstructure:"grant_hangtime"` // seconds, default 15; validated but not read: the grant timer is the fixed routing.GrantTimerDuration

	PresharedKeyEnabled bool   `mapstructure:"preshared_key_enabled"`
	PresharedKeyHex     string `mapstructure:"preshared_key_hex"` // 16-byte AES key-wrap key, hex-encoded
}

// WebConfig holds web dashboard/REST configuration
type WebConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	AuthRequired bool   `mapstructure:"auth_required"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// DatabaseConfig points at the sqlite store backing activity/diagnostic
// logs and imported radio-ID baselines.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RoutingConfig configures the grant engine's RF-channel pool
// (spec.md §4.6 step 4, pkg/routing.ChannelPool).
type RoutingConfig struct {
	Channels []uint32 `mapstructure:"channels"`
}

// RadioIDConfig configures the global radio-ID allow/deny table
// (spec.md §3 "Radio ID table").
type RadioIDConfig struct {
	CSVPath        string `mapstructure:"csv_path"`
	AllowByDefault bool   `mapstructure:"allow_by_default"`
}

// TalkgroupConfig points at the talkgroup-rule YAML (spec.md §3
// "Talkgroup-rule table").
type TalkgroupConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}

// PatchConfig is the on-disk shape of one configured patch
// (spec.md §4.7), mirroring pkg/patch.Config field-for-field so
// loading is a straight mapstructure unmarshal.
type PatchConfig struct {
	Mode string `mapstructure:"mode"` // "DMR" or "P25"

	SrcTGID uint32 `mapstructure:"src_tgid"`
	SrcSlot int    `mapstructure:"src_slot"`
	DstTGID uint32 `mapstructure:"dst_tgid"`
	DstSlot int    `mapstructure:"dst_slot"`

	TwoWay            bool `mapstructure:"two_way"`
	GrantDemand       bool `mapstructure:"grant_demand"`
	MMDVMP25Reflector bool `mapstructure:"mmdvm_p25_reflector"`

	SrcTEKAlgID uint8  `mapstructure:"src_tek_alg_id"`
	SrcTEKKeyID uint16 `mapstructure:"src_tek_key_id"`
	DstTEKAlgID uint8  `mapstructure:"dst_tek_alg_id"`
	DstTEKKeyID uint16 `mapstructure:"dst_tek_key_id"`
}

// MQTTConfig holds MQTT client configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
	Retained    bool   `mapstructure:"retained"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Set defaults
	setDefaults()

	// Set config file
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dvmfne")
	}

	// Environment variables
	viper.SetEnvPrefix("DVMFNE")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK, use defaults
		} else if os.IsNotExist(err) {
			// File explicitly specified but doesn't exist - that's also OK
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal to struct
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.name", "dvmfne")
	viper.SetDefault("server.description", "DMR/P25 fixed network equipment")
	viper.SetDefault("server.authoritative", true)
	viper.SetDefault("server.kmm_peer_id", 0)

	// Network defaults
	viper.SetDefault("network.bind_address", "0.0.0.0")
	viper.SetDefault("network.bind_port", 62031)
	viper.SetDefault("network.ping_time", 5)
	viper.SetDefault("network.max_missed_pings", 5)
	viper.SetDefault("network.grant_hangtime", 15)

	// Web defaults
	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)
	viper.SetDefault("web.auth_required", false)

	// Database defaults
	viper.SetDefault("database.path", "data/dvmfne.db")

	// Routing defaults: a small default RF channel pool
	viper.SetDefault("routing.channels", []uint32{1, 2, 3, 4})

	// Radio ID defaults
	viper.SetDefault("radio_ids.allow_by_default", true)

	// MQTT defaults
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.topic_prefix", "dvmfne")
	viper.SetDefault("mqtt.client_id", "dvmfne")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retained", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 7)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl_seconds", 600)
}
