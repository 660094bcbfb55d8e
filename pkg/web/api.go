package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvmgo/dvmfne/pkg/cache"
	"github.com/dvmgo/dvmfne/pkg/database"
	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/peer"
	"github.com/dvmgo/dvmfne/pkg/routing"
)

// API handles REST API endpoints
type API struct {
	logger     *logger.Logger
	peers      *peer.Manager
	router     *routing.Router
	txRepo     *database.TransmissionRepository
	userRepo   *database.DMRUserRepository
	radioCache *cache.RadioIDCache
}

// NewAPI creates a new API instance
func NewAPI(log *logger.Logger) *API {
	return &API{logger: log}
}

// SetDeps provides runtime dependencies to the API after construction
func (a *API) SetDeps(pm *peer.Manager, r *routing.Router) {
	a.peers = pm
	a.router = r
}

// SetTransmissionRepo sets the transmission repository
func (a *API) SetTransmissionRepo(repo *database.TransmissionRepository) {
	a.txRepo = repo
}

// SetUserRepo sets the radio-ID lookup repository backing HandleUserLookup.
func (a *API) SetUserRepo(repo *database.DMRUserRepository) {
	a.userRepo = repo
}

// SetRadioIDCache installs a Redis-backed read-through cache in front
// of the radio-ID lookup table. When set, HandleUserLookup consults it
// before falling back to the repository directly.
func (a *API) SetRadioIDCache(c *cache.RadioIDCache) {
	a.radioCache = c
}

// PeerDTO is a lightweight response for peer info (spec.md §3's Peer
// record).
type PeerDTO struct {
	ID        uint32 `json:"id"`
	Address   string `json:"address"`
	State     string `json:"state"`
	Software  string `json:"software"`
	CreatedAt int64  `json:"created_at"`
	LastPing  int64  `json:"last_ping"`
	PingCount uint64 `json:"ping_count"`
	StreamID  uint32 `json:"stream_id"`
}

// TGRuleDTO is a lightweight response for a talkgroup routing rule
// (spec.md §3's Talkgroup-rule table).
type TGRuleDTO struct {
	TGID           uint32   `json:"tgid"`
	Slot           int      `json:"slot"`
	Active         bool     `json:"active"`
	AffiliatedOnly bool     `json:"affiliated_only"`
	Inclusion      []uint32 `json:"inclusion,omitempty"`
	Exclusion      []uint32 `json:"exclusion,omitempty"`
}

// GrantDTO is a lightweight response for an active channel grant
// (spec.md §3's Grant table).
type GrantDTO struct {
	TGID       uint32 `json:"tgid"`
	Channel    uint32 `json:"channel"`
	Slot       int    `json:"slot"`
	SrcID      uint32 `json:"src_id"`
	OriginPeer uint32 `json:"origin_peer"`
	Individual bool   `json:"individual"`
	GrantedAt  int64  `json:"granted_at"`
}

// TransmissionDTO is a lightweight response for transmissions
type TransmissionDTO struct {
	ID          uint    `json:"id"`
	RadioID     uint32  `json:"radio_id"`
	TalkgroupID uint32  `json:"talkgroup_id"`
	Timeslot    int     `json:"timeslot"`
	Duration    float64 `json:"duration"`
	StartTime   int64   `json:"start_time"`
	EndTime     int64   `json:"end_time"`
	RepeaterID  uint32  `json:"repeater_id"`
	PacketCount int     `json:"packet_count"`
}

// HandleStatus handles the /api/status endpoint
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	peerCount := 0
	if a.peers != nil {
		peerCount = a.peers.Count()
	}

	response := map[string]interface{}{
		"status":  "running",
		"service": "dvmfne",
		"version": "dev",
		"peers":   peerCount,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode status response", logger.Error(err))
	}
}

// HandlePeers handles the /api/peers endpoint
func (a *API) HandlePeers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	list := make([]PeerDTO, 0)
	if a.peers != nil {
		for _, p := range a.peers.All() {
			list = append(list, PeerDTO{
				ID:        p.ID,
				Address:   p.Address.String(),
				State:     p.GetState().String(),
				Software:  p.Config.Software,
				CreatedAt: p.CreatedAt.Unix(),
				LastPing:  p.LastPing.Unix(),
				PingCount: p.PingCount,
				StreamID:  p.StreamID,
			})
		}
	}
	if err := json.NewEncoder(w).Encode(list); err != nil {
		a.logger.Error("Failed to encode peers response", logger.Error(err))
	}
}

// HandleRules handles the /api/rules endpoint, listing the configured
// talkgroup routing rules. Its "grants" field is always an empty list;
// active grants are not listed.
func (a *API) HandleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"rules":  []TGRuleDTO{},
		"grants": []GrantDTO{},
	}

	if a.router != nil {
		rules := make([]TGRuleDTO, 0)
		for _, rule := range a.router.Rules.All() {
			rules = append(rules, TGRuleDTO{
				TGID:           rule.TGID,
				Slot:           rule.Slot,
				Active:         rule.IsActive(),
				AffiliatedOnly: rule.AffiliatedOnly,
				Inclusion:      rule.Inclusion,
				Exclusion:      rule.Exclusion,
			})
		}
		response["rules"] = rules
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode rules response", logger.Error(err))
	}
}

// HandleActivity handles the /api/activity endpoint
func (a *API) HandleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// Return empty array for now - will be populated with actual activity data
	activity := []interface{}{}
	if err := json.NewEncoder(w).Encode(activity); err != nil {
		a.logger.Error("Failed to encode activity response", logger.Error(err))
	}
}

// HandleUserLookup handles GET /api/user/{radio_id}, resolving a radio
// ID against the imported radio-ID lookup table (spec.md §3's "Radio
// ID table").
func (a *API) HandleUserLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	idStr := strings.TrimPrefix(r.URL.Path, "/api/user/")
	radioID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		http.Error(w, "invalid radio id", http.StatusBadRequest)
		return
	}

	if a.userRepo == nil {
		http.Error(w, "user lookup unavailable", http.StatusServiceUnavailable)
		return
	}

	var (
		user *database.DMRUser
		err  error
	)
	if a.radioCache != nil {
		user, err = a.radioCache.GetByRadioID(r.Context(), uint32(radioID))
	} else {
		user, err = a.userRepo.GetByRadioID(uint32(radioID))
	}
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	response := map[string]interface{}{
		"radio_id": user.RadioID,
		"callsign": user.Callsign,
		"name":     user.FullName(),
		"location": user.Location(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode user lookup response", logger.Error(err))
	}
}

// HandleTransmissions handles the /api/transmissions endpoint
func (a *API) HandleTransmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	// If no transmission repo, return empty list
	if a.txRepo == nil {
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"transmissions": []TransmissionDTO{},
			"total":         0,
			"page":          1,
			"per_page":      50,
		}); err != nil {
			a.logger.Error("Failed to encode transmissions response", logger.Error(err))
		}
		return
	}

	// Parse pagination parameters
	page := 1
	perPage := 50

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if perPageStr := r.URL.Query().Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 && pp <= 100 {
			perPage = pp
		}
	}

	// Get transmissions from database
	transmissions, total, err := a.txRepo.GetRecentPaginated(page, perPage)
	if err != nil {
		a.logger.Error("Failed to get transmissions", logger.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Convert to DTOs
	dtos := make([]TransmissionDTO, 0, len(transmissions))
	for _, tx := range transmissions {
		dtos = append(dtos, TransmissionDTO{
			ID:          tx.ID,
			RadioID:     tx.RadioID,
			TalkgroupID: tx.TalkgroupID,
			Timeslot:    tx.Timeslot,
			Duration:    tx.Duration,
			StartTime:   tx.StartTime.Unix(),
			EndTime:     tx.EndTime.Unix(),
			RepeaterID:  tx.RepeaterID,
			PacketCount: tx.PacketCount,
		})
	}

	response := map[string]interface{}{
		"transmissions": dtos,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode transmissions response", logger.Error(err))
	}
}
