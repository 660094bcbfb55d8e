package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dvmgo/dvmfne/pkg/cache"
	"github.com/dvmgo/dvmfne/pkg/config"
	"github.com/dvmgo/dvmfne/pkg/database"
	"github.com/dvmgo/dvmfne/pkg/kmm"
	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/metrics"
	"github.com/dvmgo/dvmfne/pkg/mqtt"
	"github.com/dvmgo/dvmfne/pkg/patch"
	"github.com/dvmgo/dvmfne/pkg/peer"
	"github.com/dvmgo/dvmfne/pkg/radioid"
	"github.com/dvmgo/dvmfne/pkg/routing"
	"github.com/dvmgo/dvmfne/pkg/traffic"
	"github.com/dvmgo/dvmfne/pkg/transport"
	"github.com/dvmgo/dvmfne/pkg/web"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dvmfne %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("Starting dvmfne",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validateOnly {
		log.Info("Configuration is valid")
		os.Exit(0)
	}

	log.Info("Configuration loaded successfully", logger.String("config_file", *configFile))

	log = logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
	log.Debug("Debug logging enabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	metricsCollector := metrics.NewCollector()

	db, err := database.NewDB(database.Config{Path: cfg.Database.Path}, log.WithComponent("database"))
	if err != nil {
		log.Error("Failed to initialize database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	txRepo := database.NewTransmissionRepository(db.GetDB())
	userRepo := database.NewDMRUserRepository(db.GetDB())
	radioIDRepo := database.NewRadioIDRepository(db.GetDB())
	log.Info("Database initialized", logger.String("path", cfg.Database.Path))

	if cfg.RadioIDs.CSVPath != "" {
		if err := radioIDRepo.LoadCSV(cfg.RadioIDs.CSVPath); err != nil {
			log.Warn("Failed to load radio ID allow/deny table",
				logger.String("path", cfg.RadioIDs.CSVPath), logger.Error(err))
		} else {
			log.Info("Radio ID allow/deny table loaded", logger.String("path", cfg.RadioIDs.CSVPath))
		}
	}

	syncer := radioid.NewSyncer(userRepo, log.WithComponent("radioid"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		syncer.Start(ctx)
	}()

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsServer := metrics.NewPrometheusServer(
				metrics.PrometheusConfig{
					Enabled: cfg.Metrics.Prometheus.Enabled,
					Port:    cfg.Metrics.Prometheus.Port,
					Path:    cfg.Metrics.Prometheus.Path,
				},
				metricsCollector,
				log.WithComponent("metrics"),
			)
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Prometheus metrics server error", logger.Error(err))
			}
		}()
		log.Info("Prometheus metrics server started",
			logger.Int("port", cfg.Metrics.Prometheus.Port),
			logger.String("path", cfg.Metrics.Prometheus.Path))
	}

	var mqttPublisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPublisher = mqtt.New(
			mqtt.Config{
				Enabled:     cfg.MQTT.Enabled,
				Broker:      cfg.MQTT.Broker,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				QoS:         cfg.MQTT.QoS,
				Retained:    cfg.MQTT.Retained,
			},
			log.WithComponent("mqtt"),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mqttPublisher.Start(ctx); err != nil && err != context.Canceled {
				log.Error("MQTT publisher error", logger.Error(err))
			}
		}()
		log.Info("MQTT publisher started",
			logger.String("broker", cfg.MQTT.Broker),
			logger.String("topic_prefix", cfg.MQTT.TopicPrefix))
	}

	// Routing core: RF channel pool, talkgroup rules, grant/ACL tables.
	channels := make([]routing.Channel, 0, len(cfg.Routing.Channels))
	for _, id := range cfg.Routing.Channels {
		channels = append(channels, routing.Channel{ID: id})
	}
	router := routing.NewRouter(routing.NewChannelPool(channels))
	router.Authoritative = cfg.Server.Authoritative
	router.DisableGrantSrcIDCheck = cfg.Server.DisableGrantSrcIDCheck

	if cfg.Talkgroups.RulesPath != "" {
		rules, err := routing.LoadRuleFile(cfg.Talkgroups.RulesPath)
		if err != nil {
			log.Error("Failed to load talkgroup rule file",
				logger.String("path", cfg.Talkgroups.RulesPath), logger.Error(err))
			os.Exit(1)
		}
		router.Rules = rules
		log.Info("Talkgroup rules loaded", logger.String("path", cfg.Talkgroups.RulesPath))
	}

	router.ACL.SourceRadios.Enabled = !cfg.RadioIDs.AllowByDefault
	if entries, err := radioIDRepo.All(); err == nil {
		for _, e := range entries {
			if e.Enabled {
				router.ACL.SourceRadios.Allow[e.ID] = true
			} else {
				router.ACL.SourceRadios.Deny[e.ID] = true
			}
		}
	}

	router.OnGrantReleased(func(g *routing.Grant) {
		log.Debug("grant released",
			logger.Int("tgid", int(g.TGID)), logger.Int("slot", g.Slot))
	})

	// Peer session state machine over the UDP transport. transport.Server
	// needs a Handler at construction and peer.Session needs a Sender at
	// construction, so the handler box breaks the cycle: the server gets
	// a stable indirection, and the box is pointed at the real session
	// once it exists.
	var envelope *transport.Envelope
	if cfg.Network.PresharedKeyEnabled {
		key, decodeErr := hex.DecodeString(cfg.Network.PresharedKeyHex)
		if decodeErr != nil {
			log.Error("Invalid network.preshared_key_hex", logger.Error(decodeErr))
			os.Exit(1)
		}
		envelope, err = transport.NewEnvelope(key)
		if err != nil {
			log.Error("Failed to build preshared-key envelope", logger.Error(err))
			os.Exit(1)
		}
	}

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.Network.BindAddress, cfg.Network.BindPort))
	if err != nil {
		log.Error("Failed to resolve bind address", logger.Error(err))
		os.Exit(1)
	}

	handlerBox := &handlerIndirection{}
	transportServer := transport.NewServer(addr, handlerBox, envelope, log.WithComponent("transport"))

	peerManager := peer.NewManager()
	auth := &passphraseAuth{passphrase: cfg.Network.Passphrase}
	session := peer.NewSession(peerManager, auth, transportServer, log.WithComponent("peer"))

	// Traffic relay: the decode-to-TGID step connecting NetFuncProtocol
	// datagrams (DMR/P25 voice and control bursts) to the router's
	// grant/ACL/forward pipeline. Control-plane NetFuncs still go to
	// session; handlerBox dispatches on function.
	trafficRelay := traffic.NewRelay(router, peerManager, transportServer, log.WithComponent("traffic"))
	handlerBox.control = session
	handlerBox.traffic = trafficRelay

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(cfg.Web, log.WithComponent("web")).
			WithPeerManager(peerManager).
			WithRouter(router)
		webServer.GetAPI().SetTransmissionRepo(txRepo)
		webServer.GetAPI().SetUserRepo(userRepo)
		if cfg.Cache.Enabled {
			radioCache := cache.New(
				cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB,
				time.Duration(cfg.Cache.TTL)*time.Second,
				userRepo, log,
			)
			webServer.GetAPI().SetRadioIDCache(radioCache)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Web server error", logger.Error(err))
			}
		}()
		log.Info("Web server started",
			logger.String("host", cfg.Web.Host), logger.Int("port", cfg.Web.Port))
	}

	session.OnRunning(func(p *peer.Peer) {
		router.RegisterPeer(p.ID)
		if webServer != nil {
			webServer.PeerConnectedHandler()(p.ID, p.Config.Software, p.Address.String())
		}
	})
	session.OnClosed(func(peerID uint32) {
		router.UnregisterPeer(peerID)
		if webServer != nil {
			webServer.PeerDisconnectedHandler()(peerID)
		}
	})

	// KMM key-management endpoint for configured patches, addressed to
	// the configured kmm_peer_id as a P25 PDU; zero leaves it logging
	// requests instead of sending them.
	kmmSender := &traffic.KMMSender{Relay: trafficRelay, PeerID: cfg.Server.KMMPeerID, Log: log.WithComponent("kmm")}
	kmmManager := kmm.NewManager(kmmSender, log.WithComponent("kmm"))

	// Patch engines bridge two TGIDs. Engine only re-keys P25 LDU
	// traffic today (pkg/patch.FrameSender is a P25-specific contract),
	// so a DMR-mode patch is accepted in config but not yet driven by
	// the relay; it is logged and skipped rather than silently ignored.
	patchEngines := make(map[string]*patch.Engine, len(cfg.Patches))
	for name, pc := range cfg.Patches {
		if !strings.EqualFold(pc.Mode, "P25") {
			log.Warn("DMR-mode patch configured but not yet supported by the traffic relay, skipping",
				logger.String("name", name))
			continue
		}
		engineCfg := patch.Config{
			Mode:              patch.ModeP25,
			SrcTGID:           pc.SrcTGID,
			SrcSlot:           pc.SrcSlot,
			DstTGID:           pc.DstTGID,
			DstSlot:           pc.DstSlot,
			TwoWay:            pc.TwoWay,
			GrantDemand:       pc.GrantDemand,
			MMDVMP25Reflector: pc.MMDVMP25Reflector,
			SrcTEKAlgID:       pc.SrcTEKAlgID,
			SrcTEKKeyID:       pc.SrcTEKKeyID,
			DstTEKAlgID:       pc.DstTEKAlgID,
			DstTEKKeyID:       pc.DstTEKKeyID,
		}
		eng := patch.NewEngine(engineCfg, kmmManager, trafficRelay.NewP25FrameSender())
		patchEngines[name] = eng
		trafficRelay.RegisterP25Patch(pc.SrcTGID, eng)
		if pc.TwoWay {
			reverseCfg := engineCfg
			reverseCfg.SrcTGID, reverseCfg.DstTGID = pc.DstTGID, pc.SrcTGID
			reverseCfg.SrcSlot, reverseCfg.DstSlot = pc.DstSlot, pc.SrcSlot
			reverseCfg.SrcTEKAlgID, reverseCfg.DstTEKAlgID = pc.DstTEKAlgID, pc.SrcTEKAlgID
			reverseCfg.SrcTEKKeyID, reverseCfg.DstTEKKeyID = pc.DstTEKKeyID, pc.SrcTEKKeyID
			reverseCfg.TwoWay = false
			reverseEng := patch.NewEngine(reverseCfg, kmmManager, trafficRelay.NewP25FrameSender())
			trafficRelay.RegisterP25Patch(pc.DstTGID, reverseEng)
		}
		log.Info("Patch configured",
			logger.String("name", name),
			logger.Int("src_tgid", int(pc.SrcTGID)),
			logger.Int("dst_tgid", int(pc.DstTGID)))
	}

	// Transport receive loop.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := transportServer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("Transport server error", logger.Error(err))
		}
	}()
	log.Info("Transport listening",
		logger.String("address", fmt.Sprintf("%s:%d", cfg.Network.BindAddress, cfg.Network.BindPort)))

	// Periodic peer-timeout and grant maintenance.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(cfg.Network.PingTime) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				session.MaintenanceTick(
					time.Duration(cfg.Network.PingTime)*time.Second,
					cfg.Network.MaxMissedPings)
				router.MaintenanceTick()
			}
		}
	}()

	log.Info("dvmfne initialized", logger.String("server_name", cfg.Server.Name))

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.String("signal", sig.String()))

	cancel()

	if mqttPublisher != nil {
		mqttPublisher.Stop()
	}

	wg.Wait()
	log.Info("dvmfne stopped")
}

// passphraseAuth grants every peer ID the same shared passphrase,
// mirroring the single network.passphrase setting DMR-Homebrew-style
// deployments share across all affiliated repeaters.
type passphraseAuth struct {
	passphrase string
}

func (a *passphraseAuth) PasswordFor(peerID uint32) (string, bool) {
	if a.passphrase == "" {
		return "", false
	}
	return a.passphrase, true
}

// handlerIndirection lets transport.Server be constructed before the
// peer.Session and traffic.Relay that will ultimately handle its
// frames exist, since both need the already-constructed server as
// their Sender. NetFuncProtocol datagrams (voice/data traffic) go to
// traffic; every other NetFunc (login, auth, config, ping, closing)
// goes to control.
type handlerIndirection struct {
	control transport.Handler
	traffic transport.Handler
}

func (h *handlerIndirection) HandleFrame(f *transport.Frame, addr *net.UDPAddr) {
	if f.Function == transport.NetFuncProtocol {
		if h.traffic != nil {
			h.traffic.HandleFrame(f, addr)
		}
		return
	}
	if h.control != nil {
		h.control.HandleFrame(f, addr)
	}
}
