package server

import "strings"

// Typing relays typing indicators to the other sessions of a room. It
// keeps no state.
type Typing struct {
	hub *Hub
}

func NewTyping(hub *Hub) *Typing {
	return &Typing{hub: hub}
}

// Relay forwards a typing signal from a joined session. Signals from
// sessions outside the room are dropped. It returns the number of
// sessions reached.
func (t *Typing) Relay(from *Client, req ConversationRequest, typing bool) int {
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if req.ConversationID == "" || !t.hub.InRoom(from, req.ConversationID) {
		return 0
	}

	s := from.Session()
	return t.hub.Multicast(req.ConversationID, Outbound{Event: EventUserTyping, Data: UserTyping{
		UserID:         s.UserID,
		UserName:       s.UserName,
		ConversationID: req.ConversationID,
		IsTyping:       typing,
	}}, from)
}
