package cdp

// Notes:
// - fakeChrome is an httptest WebSocket server speaking just enough of the
//   protocol for these tests: canned command responses plus event injection
// - It reuses the package's message envelope, so the frames on the wire are
//   exactly what a browser would produce

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// commandResult is what the fake returns for one command.
type commandResult struct {
	result any
	err    *wireError
}

// fakeChrome serves one DevTools-style WebSocket endpoint.
type fakeChrome struct {
	t   *testing.T
	srv *httptest.Server

	// handle overrides per-method behavior; nil falls back to defaults.
	handle func(msg message) *commandResult

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newFakeChrome(t *testing.T) *fakeChrome {
	t.Helper()
	f := &fakeChrome{t: t}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.serve(conn)
	}))
	t.Cleanup(f.close)
	return f
}

func (f *fakeChrome) wsURL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeChrome) close() {
	f.dropConnection()
	f.srv.Close()
}

// dropConnection severs the transport without stopping the server, the way a
// crashing browser would.
func (f *fakeChrome) dropConnection() {
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.mu.Unlock()
}

// serve answers commands until the peer disconnects.
func (f *fakeChrome) serve(conn *websocket.Conn) {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		res, overridden := f.dispatch(msg)
		resp := message{ID: msg.ID, SessionID: msg.SessionID, Error: res.err}
		if res.result != nil {
			b, err := json.Marshal(res.result)
			if err != nil {
				f.t.Errorf("marshaling fake result for %s: %v", msg.Method, err)
				continue
			}
			resp.Result = b
		} else {
			resp.Result = json.RawMessage(`{}`)
		}
		f.write(resp)

		// The real browser fires the load event shortly after a navigate.
		// Tests overriding Page.navigate control their own events.
		if msg.Method == "Page.navigate" && !overridden && res.err == nil {
			f.emit("Page.loadEventFired", msg.SessionID, `{"timestamp":1}`)
		}
	}
}

// dispatch resolves one command, reporting whether the test's handler took
// it over.
func (f *fakeChrome) dispatch(msg message) (*commandResult, bool) {
	if f.handle != nil {
		if res := f.handle(msg); res != nil {
			return res, true
		}
	}
	switch msg.Method {
	case "Target.createTarget":
		return &commandResult{result: map[string]string{"targetId": "TARGET-1"}}, false
	case "Target.attachToTarget":
		return &commandResult{result: map[string]string{"sessionId": "SESSION-1"}}, false
	default:
		return &commandResult{}, false
	}
}

// emit pushes one protocol event to the connected client.
func (f *fakeChrome) emit(method, sessionID, params string) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		f.t.Error("emit before a client connected")
		return
	}
	f.write(message{Method: method, SessionID: sessionID, Params: json.RawMessage(params)})
}

func (f *fakeChrome) write(msg message) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	// Write errors are expected when the client goes away mid-test.
	_ = conn.WriteJSON(msg)
}
