package notelog

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The status feed is read-only and carries no secrets; same-origin
	// enforcement is left to the presentation layer's deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusWS streams save-status events for both resources over a
// websocket, so the presentation layer can show "saving… / saved / save
// failed" without polling. The stream ends when the client disconnects.
func (a *App) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("status websocket upgrade failed")
		return
	}
	defer conn.Close()

	pagesCh, cancelPages := a.pages.Subscribe()
	defer cancelPages()
	wsCh, cancelWS := a.workspace.Subscribe()
	defer cancelWS()

	// Drain reads so we notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-pagesCh:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case ev, ok := <-wsCh:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
