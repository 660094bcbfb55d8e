package config

import (
	"fmt"
	"strings"
)

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Network.PingTime <= 0 {
		return fmt.Errorf("network.ping_time must be positive")
	}
	if cfg.Network.MaxMissedPings <= 0 {
		return fmt.Errorf("network.max_missed_pings must be positive")
	}
	if cfg.Network.BindPort <= 0 || cfg.Network.BindPort > 65535 {
		return fmt.Errorf("network.bind_port must be between 1 and 65535")
	}
	if cfg.Network.GrantHangtime <= 0 {
		return fmt.Errorf("network.grant_hangtime must be positive")
	}
	if cfg.Network.PresharedKeyEnabled && cfg.Network.PresharedKeyHex == "" {
		return fmt.Errorf("network.preshared_key_hex is required when network.preshared_key_enabled is true")
	}

	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when cache is enabled")
	}

	for name, p := range cfg.Patches {
		mode := strings.ToUpper(p.Mode)
		if mode != "DMR" && mode != "P25" {
			return fmt.Errorf("patch %s: invalid mode %s (must be DMR or P25)", name, p.Mode)
		}
		if p.SrcTGID == 0 {
			return fmt.Errorf("patch %s: src_tgid is required", name)
		}
		if p.DstTGID == 0 {
			return fmt.Errorf("patch %s: dst_tgid is required", name)
		}
		if mode == "DMR" {
			if p.SrcSlot != 1 && p.SrcSlot != 2 {
				return fmt.Errorf("patch %s: src_slot must be 1 or 2 for DMR", name)
			}
			if p.DstSlot != 1 && p.DstSlot != 2 {
				return fmt.Errorf("patch %s: dst_slot must be 1 or 2 for DMR", name)
			}
		}
		if (p.SrcTEKAlgID != 0) != (p.SrcTEKKeyID != 0) {
			return fmt.Errorf("patch %s: src_tek_alg_id and src_tek_key_id must be set together", name)
		}
		if (p.DstTEKAlgID != 0) != (p.DstTEKKeyID != 0) {
			return fmt.Errorf("patch %s: dst_tek_alg_id and dst_tek_key_id must be set together", name)
		}
	}

	return nil
}
