package handlers

import (
	"errors"
	"log"
	"strconv"

	"forestfight/services/match"
	"forestfight/services/security"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// ackFunc is the trailing callback socket.io passes when the client
// asked for an acknowledgement.
type ackFunc = func([]interface{}, error)

// decodeRequest unwraps the first data argument of an event. Requests
// arrive as a hybrid envelope, a fixed-key envelope or plain JSON; the
// security service sorts that out. Events sent with no payload decode
// to an empty map.
func decodeRequest(sec *security.Service, args []interface{}) (map[string]interface{}, error) {
	for _, arg := range args {
		if _, isAck := arg.(ackFunc); isAck {
			break
		}
		return sec.DecryptRequest(arg)
	}
	return map[string]interface{}{}, nil
}

// ackOf extracts the client's acknowledgement callback, if any.
func ackOf(args []interface{}) ackFunc {
	if len(args) == 0 {
		return nil
	}
	if ack, ok := args[len(args)-1].(ackFunc); ok {
		return ack
	}
	return nil
}

// respond delivers a personalized payload back to the caller: through
// the acknowledgement when the client asked for one, as an event of
// the same name otherwise.
func respond(client *socket.Socket, sec *security.Service, username, event string, ack ackFunc, payload map[string]interface{}) {
	sealed := sec.EncryptResponse(payload, username)
	if ack != nil {
		ack([]interface{}{sealed}, nil)
		return
	}
	client.Emit(event, sealed)
}

// respondError maps an engine failure onto the wire error shape. The
// kinded message is already client-safe; anything else becomes a
// generic store failure.
func respondError(client *socket.Socket, sec *security.Service, username string, ack ackFunc, err error) {
	var mErr *match.Error
	payload := gin.H{"error": "Internal server error", "kind": string(match.KindStore)}
	if errors.As(err, &mErr) {
		payload = gin.H{"error": mErr.Message, "kind": string(mErr.Kind)}
	}

	sealed := sec.EncryptResponse(payload, username)
	if ack != nil {
		ack([]interface{}{sealed}, nil)
		return
	}
	client.Emit("error", sealed)
}

// checkIdentity rejects requests that name a different username than
// the socket authenticated as. Requests that omit the field pass; the
// engine only ever acts on the authenticated name.
func checkIdentity(req map[string]interface{}, username string, client *socket.Socket) bool {
	claimed, _ := req["username"].(string)
	if claimed == "" || claimed == username {
		return true
	}
	log.Printf("[SECURITY] Socket %s authenticated as %s but claimed %s", client.Id(), username, claimed)
	return false
}

func getString(req map[string]interface{}, key string) string {
	v, _ := req[key].(string)
	return v
}

// getInt reads a numeric field however JSON or the client typed it.
func getInt(req map[string]interface{}, key string) (int, bool) {
	switch v := req[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
