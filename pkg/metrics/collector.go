package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector collects dvmfne metrics and exposes them both through its
// own getters (used by pkg/web's dashboard) and a Prometheus registry
// (used by PrometheusHandler), mirroring USA-RedDragon-DMRHub's
// internal/metrics.Metrics struct of named Counter/Gauge fields
// registered to a single registry.
type Collector struct {
	mu sync.RWMutex

	registry *prometheus.Registry

	peersTotal       prometheus.Counter
	peersActive      prometheus.Gauge
	packetsReceived  prometheus.Counter
	packetsSent      prometheus.Counter
	bytesReceived    prometheus.Counter
	bytesSent        prometheus.Counter
	streamsActive    prometheus.Gauge
	bridgeRoutes     prometheus.Counter
	talkgroupsActive prometheus.Gauge

	// Peer metrics
	totalPeers  uint64
	activePeers map[uint32]bool

	// Packet metrics
	packetsReceivedCount uint64
	packetsSentCount     uint64
	bytesReceivedCount   uint64
	bytesSentCount       uint64

	// Stream metrics
	activeStreams map[uint32]bool

	// Bridge metrics
	bridgeRoutesCount uint64

	// Talkgroup metrics
	activeTalkgroups map[string]bool // key: "tgid:timeslot"
}

// NewCollector creates a new metrics collector with its own Prometheus
// registry, so multiple Collectors (as in tests) never collide on the
// global default registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		peersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_peers_total",
			Help: "Total number of peer connections",
		}),
		peersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmr_peers_active",
			Help: "Number of currently active peers",
		}),
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_packets_received_total",
			Help: "Total packets received",
		}),
		packetsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_packets_sent_total",
			Help: "Total packets sent",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_bytes_received_total",
			Help: "Total bytes received",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_bytes_sent_total",
			Help: "Total bytes sent",
		}),
		streamsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmr_streams_active",
			Help: "Number of active voice streams",
		}),
		bridgeRoutes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmr_bridge_routes_total",
			Help: "Total bridge routing events",
		}),
		talkgroupsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmr_talkgroups_active",
			Help: "Number of active talkgroups",
		}),

		activePeers:      make(map[uint32]bool),
		activeStreams:    make(map[uint32]bool),
		activeTalkgroups: make(map[string]bool),
	}
	c.registry.MustRegister(
		c.peersTotal, c.peersActive,
		c.packetsReceived, c.packetsSent,
		c.bytesReceived, c.bytesSent,
		c.streamsActive, c.bridgeRoutes, c.talkgroupsActive,
	)
	return c
}

// Registry returns the Prometheus registry PrometheusHandler exposes.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// PeerConnected records a peer connection
func (c *Collector) PeerConnected(peerID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalPeers++
	c.activePeers[peerID] = true
	c.peersTotal.Inc()
	c.peersActive.Set(float64(len(c.activePeers)))
}

// PeerDisconnected records a peer disconnection
func (c *Collector) PeerDisconnected(peerID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.activePeers, peerID)
	c.peersActive.Set(float64(len(c.activePeers)))
}

// PacketReceived records a received packet
func (c *Collector) PacketReceived(packetType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.packetsReceivedCount++
	c.packetsReceived.Inc()
}

// PacketSent records a sent packet
func (c *Collector) PacketSent(packetType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.packetsSentCount++
	c.packetsSent.Inc()
}

// BytesReceived records received bytes
func (c *Collector) BytesReceived(bytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bytesReceivedCount += bytes
	c.bytesReceived.Add(float64(bytes))
}

// BytesSent records sent bytes
func (c *Collector) BytesSent(bytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bytesSentCount += bytes
	c.bytesSent.Add(float64(bytes))
}

// StreamStarted records a stream start
func (c *Collector) StreamStarted(streamID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeStreams[streamID] = true
	c.streamsActive.Set(float64(len(c.activeStreams)))
}

// StreamEnded records a stream end
func (c *Collector) StreamEnded(streamID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.activeStreams, streamID)
	c.streamsActive.Set(float64(len(c.activeStreams)))
}

// BridgeRouted records a bridge routing event
func (c *Collector) BridgeRouted(bridgeName, system string, tgid uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bridgeRoutesCount++
	c.bridgeRoutes.Inc()
}

// TalkgroupActive records a talkgroup becoming active
func (c *Collector) TalkgroupActive(tgid uint32, timeslot uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := talkgroupKey(tgid, timeslot)
	c.activeTalkgroups[key] = true
	c.talkgroupsActive.Set(float64(len(c.activeTalkgroups)))
}

// TalkgroupInactive records a talkgroup becoming inactive
func (c *Collector) TalkgroupInactive(tgid uint32, timeslot uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := talkgroupKey(tgid, timeslot)
	delete(c.activeTalkgroups, key)
	c.talkgroupsActive.Set(float64(len(c.activeTalkgroups)))
}

// Reset resets all metrics (useful for testing)
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activePeers = make(map[uint32]bool)
	c.activeStreams = make(map[uint32]bool)
	c.activeTalkgroups = make(map[string]bool)
	c.peersActive.Set(0)
	c.streamsActive.Set(0)
	c.talkgroupsActive.Set(0)
	// Note: We don't reset total counters like totalPeers, packetsReceived, etc.
	// as those are cumulative
}

// Getters for metrics

// GetTotalPeers returns total peer connections
func (c *Collector) GetTotalPeers() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalPeers
}

// GetActivePeers returns the number of active peers
func (c *Collector) GetActivePeers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activePeers)
}

// GetPacketsReceived returns total packets received
func (c *Collector) GetPacketsReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packetsReceivedCount
}

// GetPacketsSent returns total packets sent
func (c *Collector) GetPacketsSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packetsSentCount
}

// GetBytesReceived returns total bytes received
func (c *Collector) GetBytesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesReceivedCount
}

// GetBytesSent returns total bytes sent
func (c *Collector) GetBytesSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesSentCount
}

// GetActiveStreams returns the number of active streams
func (c *Collector) GetActiveStreams() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activeStreams)
}

// GetBridgeRoutes returns total bridge routing events
func (c *Collector) GetBridgeRoutes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bridgeRoutesCount
}

// GetActiveTalkgroups returns the number of active talkgroups
func (c *Collector) GetActiveTalkgroups() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.activeTalkgroups)
}

func talkgroupKey(tgid uint32, timeslot uint8) string {
	return string([]byte{
		byte(tgid >> 24),
		byte(tgid >> 16),
		byte(tgid >> 8),
		byte(tgid),
		timeslot,
	})
}
