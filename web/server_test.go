package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
	"github.com/ramborogers/netswitch/profiles"
)

const testToken = "s3cret"

// gatedApplier blocks each Apply until release is closed.
type gatedApplier struct {
	release chan struct{}
	mu      sync.Mutex
	applied []string
}

func (g *gatedApplier) Platform() string { return applier.PlatformLinux }

func (g *gatedApplier) Interfaces() ([]string, error) { return []string{"eth0", "wlan0"}, nil }

func (g *gatedApplier) Apply(iface string, p applier.Profile) applier.Result {
	<-g.release
	g.mu.Lock()
	g.applied = append(g.applied, iface+" "+p.IPAddress)
	g.mu.Unlock()
	return applier.Result{Success: true, Platform: applier.PlatformLinux, Interface: iface, Warnings: []string{"w"}}
}

type recordingReporter struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingReporter) Submit(department, user string, res applier.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, department+"/"+user)
}

func testStore() *profiles.Store {
	return profiles.NewStore([]profiles.Department{{
		Name: "Finance",
		Users: []profiles.User{{
			Name: "alice", IP: "192.168.1.50", Netmask: "255.255.255.0",
			Gateway: "192.168.1.1", DNS: "8.8.8.8",
		}},
	}})
}

func newTestServer(t *testing.T, a applier.NetworkApplier, rep Reporter) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(Options{
		Token:    testToken,
		Version:  "test",
		Store:    testStore(),
		Applier:  a,
		Details:  func() ([]netinfo.Interface, error) { return []netinfo.Interface{{Name: "eth0", IPAddress: "10.0.0.2"}}, nil },
		Reporter: rep,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?auth=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads messages until one of type want arrives.
func next(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == want {
			return msg
		}
	}
}

func TestNewServerRequiresToken(t *testing.T) {
	_, err := NewServer(Options{Applier: &gatedApplier{}})
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t, &gatedApplier{}, nil)

	for _, path := range []string{"/", "/api/profiles", "/api/interfaces", "/ws"} {
		resp, err := http.Get(ts.URL + path + "?auth=wrong")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestIndexRendersProfiles(t *testing.T) {
	_, ts := newTestServer(t, &gatedApplier{}, nil)

	resp, err := http.Get(ts.URL + "/?auth=" + testToken)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Finance")
	assert.Contains(t, string(body), `data-user="alice"`)
	assert.Contains(t, string(body), `<option value="wlan0">`)
}

func TestAPIProfilesAndInterfaces(t *testing.T) {
	_, ts := newTestServer(t, &gatedApplier{}, nil)

	resp, err := http.Get(ts.URL + "/api/profiles?auth=" + testToken)
	require.NoError(t, err)
	var prof struct {
		Departments []profiles.Department `json:"departments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prof))
	resp.Body.Close()
	require.Len(t, prof.Departments, 1)
	assert.Equal(t, "alice", prof.Departments[0].Users[0].Name)

	resp, err = http.Get(ts.URL + "/api/interfaces?auth=" + testToken)
	require.NoError(t, err)
	var ifs interfaceView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ifs))
	resp.Body.Close()
	assert.Equal(t, "linux", ifs.Platform)
	assert.Equal(t, []string{"eth0", "wlan0"}, ifs.Interfaces)
	require.Len(t, ifs.Details, 1)
	assert.Equal(t, "10.0.0.2", ifs.Details[0].IPAddress)
}

func TestWebSocketApply(t *testing.T) {
	gate := &gatedApplier{release: make(chan struct{})}
	rep := &recordingReporter{}
	s, ts := newTestServer(t, gate, rep)

	conn := dial(t, ts)
	watcher := dial(t, ts)
	next(t, conn, msgProfiles)
	next(t, watcher, msgProfiles)

	require.NoError(t, conn.WriteJSON(ApplyRequest{Type: "apply", Department: "Finance", User: "alice", Interface: "eth0"}))
	started := next(t, conn, msgApplyStarted)
	assert.Equal(t, "alice", started["user"])
	assert.True(t, s.Applying())

	// a second request while the first is still running
	require.NoError(t, conn.WriteJSON(ApplyRequest{Type: "apply", Department: "Finance", User: "alice", Interface: "wlan0"}))
	refused := next(t, conn, msgError)
	assert.Equal(t, ErrApplyInProgress.Error(), refused["error"])

	close(gate.release)

	for _, c := range []*websocket.Conn{conn, watcher} {
		res := next(t, c, msgApplyResult)
		result := res["result"].(map[string]interface{})
		assert.Equal(t, true, result["success"])
		assert.Equal(t, "eth0", result["interface"])
	}

	assert.Eventually(t, func() bool { return !s.Applying() }, time.Second, 10*time.Millisecond)
	gate.mu.Lock()
	assert.Equal(t, []string{"eth0 192.168.1.50"}, gate.applied)
	gate.mu.Unlock()
	rep.mu.Lock()
	assert.Equal(t, []string{"Finance/alice"}, rep.users)
	rep.mu.Unlock()
}

func TestWebSocketUnknownProfile(t *testing.T) {
	_, ts := newTestServer(t, &gatedApplier{release: make(chan struct{})}, nil)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(ApplyRequest{Type: "apply", Department: "Finance", User: "mallory", Interface: "eth0"}))
	msg := next(t, conn, msgError)
	assert.Contains(t, msg["error"], "profile not found")
}

func TestSetStoreBroadcasts(t *testing.T) {
	s, ts := newTestServer(t, &gatedApplier{}, nil)
	conn := dial(t, ts)
	next(t, conn, msgProfiles)

	s.SetStore(profiles.NewStore([]profiles.Department{{Name: "Ops"}}))

	msg := next(t, conn, msgProfiles)
	depts := msg["departments"].([]interface{})
	require.Len(t, depts, 1)
	assert.Equal(t, "Ops", depts[0].(map[string]interface{})["department"])
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "office-pc", instanceName("office-pc._netswitch._tcp.local."))
	assert.Equal(t, "Bob's Mac", instanceName("Bob\\'s Mac._netswitch._tcp.local."))
}

func TestPanelURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.2:8080/?auth=abc", PanelURL("10.0.0.2", 8080, "abc"))
}
