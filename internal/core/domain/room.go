package domain

// RoomKey names a fanout group. The three namespaces are kept disjoint by
// construction: an inbox key can never collide with a chat or call key.
type RoomKey string

func (k RoomKey) String() string {
	return string(k)
}

func ChatRoom(roomName string) RoomKey {
	return RoomKey("chat_" + roomName)
}

func CallRoom(roomName string) RoomKey {
	return RoomKey("call_" + roomName)
}

func InboxChannel(userID UserID) RoomKey {
	return RoomKey("inbox_" + string(userID))
}

// ConnectionKind tells which socket a connection came in on.
type ConnectionKind string

const (
	KindChat  ConnectionKind = "chat"
	KindInbox ConnectionKind = "inbox"
	KindCall  ConnectionKind = "call"
)

type Identity struct {
	UserID UserID
}
