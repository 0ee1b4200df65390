package service

// Broadcaster fans events out to a room's connections. The WebSocket
// hub implements it; keeping the interface here avoids an import cycle
// between service and transport.
type Broadcaster interface {
	Broadcast(roomKey, event string, payload interface{})
	SendTo(roomKey, connID, event string, payload interface{})
	CloseRoom(roomKey string)
}

// NopBroadcaster is used for poll-only deployments and in tests that
// do not care about fan-out.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(roomKey, event string, payload interface{})      {}
func (NopBroadcaster) SendTo(roomKey, connID, event string, payload interface{}) {}
func (NopBroadcaster) CloseRoom(roomKey string)                                  {}
