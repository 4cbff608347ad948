package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandChatMessage persists a message and delivers it to the whole room.
	CommandChatMessage CommandKind = iota
	// CommandTyping relays a typing indicator to the other room members.
	CommandTyping
	// CommandUserJoin announces the client's username to the room.
	CommandUserJoin
)

// DefaultUsername is used when a client does not name itself.
const DefaultUsername = "Anonymous"

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Username string
	Content  string
	IsTyping bool
}

func commandUsername(cmd Command) string {
	if cmd.Username == "" {
		return DefaultUsername
	}
	return cmd.Username
}
