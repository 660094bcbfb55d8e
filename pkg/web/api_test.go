package web

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dvmgo/dvmfne/pkg/database"
	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/peer"
	"github.com/dvmgo/dvmfne/pkg/routing"
)

func TestHandlePeers_ListsRegisteredPeers(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	pm := peer.NewManager()
	addr1 := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 10001}
	addr2 := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 10002}
	p1 := pm.Create(1001, addr1, 0xdeadbeef)
	p1.SetState(peer.Running)
	p2 := pm.Create(1002, addr2, 0xcafebabe)
	p2.SetState(peer.WaitingAuth)

	api := NewAPI(log)
	api.SetDeps(pm, nil)

	req := httptest.NewRequest("GET", "/api/peers", nil)
	w := httptest.NewRecorder()
	api.HandlePeers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var peers []PeerDTO
	if err := json.NewDecoder(w.Body).Decode(&peers); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(peers) != 2 {
		t.Fatalf("Expected 2 peers, got %d", len(peers))
	}

	seen := map[uint32]string{}
	for _, p := range peers {
		seen[p.ID] = p.State
	}
	if seen[1001] != "Running" {
		t.Errorf("Expected peer 1001 to be Running, got %v", seen[1001])
	}
	if seen[1002] != "WaitingAuth" {
		t.Errorf("Expected peer 1002 to be WaitingAuth, got %v", seen[1002])
	}
}

func TestHandleRules_ListsConfiguredTalkgroupRules(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	channels := routing.NewChannelPool([]routing.Channel{{ID: 1}, {ID: 2}})
	router := routing.NewRouter(channels)

	active := routing.NewTGRule(91, 1)
	active.Activate()
	router.Rules.Add(active)
	router.Rules.Add(routing.NewTGRule(9, 2))

	api := NewAPI(log)
	api.SetDeps(nil, router)

	req := httptest.NewRequest("GET", "/api/rules", nil)
	w := httptest.NewRecorder()
	api.HandleRules(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Rules []TGRuleDTO `json:"rules"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(response.Rules))
	}

	byTGID := map[uint32]TGRuleDTO{}
	for _, r := range response.Rules {
		byTGID[r.TGID] = r
	}
	if !byTGID[91].Active {
		t.Errorf("Expected rule 91 to be active")
	}
	if byTGID[9].Active {
		t.Errorf("Expected rule 9 to be inactive")
	}
}

func TestHandleUserLookup_NoRepo(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/user/3121001", nil)
	w := httptest.NewRecorder()
	api.HandleUserLookup(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 when no user repo is set, got %d", w.Code)
	}
}

func TestHandleUserLookup_InvalidID(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/user/not-a-number", nil)
	w := httptest.NewRecorder()
	api.HandleUserLookup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a non-numeric radio id, got %d", w.Code)
	}
}

func TestHandleTransmissions_NoRepo(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/transmissions", nil)
	w := httptest.NewRecorder()

	api.HandleTransmissions(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if total, ok := response["total"].(float64); !ok || total != 0 {
		t.Errorf("Expected total 0, got %v", response["total"])
	}
}

func TestHandleTransmissions_WithData(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	dbPath := "/tmp/test_api_transmissions.db"
	defer os.Remove(dbPath)

	db, err := database.NewDB(database.Config{Path: dbPath}, log)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	repo := database.NewTransmissionRepository(db.GetDB())

	// Create test transmissions
	now := time.Now()
	for i := 0; i < 3; i++ {
		tx := &database.Transmission{
			RadioID:     uint32(1234560 + i),
			TalkgroupID: 91,
			Timeslot:    1,
			Duration:    float64(i + 1),
			StreamID:    uint32(1000 + i),
			StartTime:   now.Add(time.Duration(i) * time.Minute),
			EndTime:     now.Add(time.Duration(i)*time.Minute + time.Duration(i+1)*time.Second),
			RepeaterID:  3001,
			PacketCount: 10 + i,
		}
		if err := repo.Create(tx); err != nil {
			t.Fatalf("Failed to create transmission: %v", err)
		}
	}

	// Create API with repo
	api := NewAPI(log)
	api.SetTransmissionRepo(repo)

	req := httptest.NewRequest("GET", "/api/transmissions?page=1&per_page=2", nil)
	w := httptest.NewRecorder()

	api.HandleTransmissions(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if total, ok := response["total"].(float64); !ok || total != 3 {
		t.Errorf("Expected total 3, got %v", response["total"])
	}

	if page, ok := response["page"].(float64); !ok || page != 1 {
		t.Errorf("Expected page 1, got %v", response["page"])
	}

	if perPage, ok := response["per_page"].(float64); !ok || perPage != 2 {
		t.Errorf("Expected per_page 2, got %v", response["per_page"])
	}

	transmissions, ok := response["transmissions"].([]interface{})
	if !ok {
		t.Fatalf("Expected transmissions array")
	}

	if len(transmissions) != 2 {
		t.Errorf("Expected 2 transmissions on first page, got %d", len(transmissions))
	}
}

func TestHandleTransmissions_MethodNotAllowed(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("POST", "/api/transmissions", nil)
	w := httptest.NewRecorder()

	api.HandleTransmissions(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

