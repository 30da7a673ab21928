package testutil

import "encoding/json"

// Protocol reply literals, mirrored here so fakes do not import the
// packages under test.
const (
	SessionStartedAck = "Session started."
	PartReceivedAck   = "Message part received."
)

// AckingServer returns an OnWrite hook that plays the happy-path server
// side of the outbound protocol: it acknowledges START with the session
// ack and every BODY part with the part-received ack. END is passed to
// onEnd, letting a test start scripting streamed replies.
func AckingServer(onEnd func(conn *FakeConn)) func(*FakeConn, []byte) {
	return func(conn *FakeConn, data []byte) {
		var frame struct {
			Step string `json:"step"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return
		}

		switch frame.Step {
		case "START":
			conn.Push(SessionStartedAck)
		case "BODY":
			conn.Push(PartReceivedAck)
		case "END":
			if onEnd != nil {
				onEnd(conn)
			}
		}
	}
}
