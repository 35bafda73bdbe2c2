package sync

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"inspirewall/internal/showcase"
)

// Dispatcher applies page input to the showcase.
type Dispatcher interface {
	Dispatch(in showcase.Input) error
	State() showcase.State
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // page and API may be served from different origins
	},
}

// WSHandler streams hub events to the page and feeds the page's pointer,
// focus, click and key events back into the showcase.
func WSHandler(hub *Hub, d Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		ws.SetReadLimit(4096)

		welcome := WelcomeEvent{Type: TypeWelcome, Transport: "websocket", Clients: hub.Stats().WSClients + 1}
		if d != nil {
			st := d.State()
			welcome.State = &st
		}
		_ = hub.SendWS(ws, welcome)

		hub.AddWS(ws)
		log.Println("[ws] client connected")

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				break
			}
			if d == nil {
				continue
			}
			var in showcase.Input
			if err := json.Unmarshal(msg, &in); err != nil {
				_ = hub.SendWS(ws, ErrorEvent{Type: TypeError, Error: "invalid json"})
				continue
			}
			if err := d.Dispatch(in); err != nil {
				_ = hub.SendWS(ws, ErrorEvent{Type: TypeError, Error: err.Error()})
			}
		}

		hub.RemoveWS(ws)
		log.Println("[ws] client disconnected")
	}
}
