package models

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message unit of a note transcript.
// Role is assigned once by the parser from the block position and is never
// re-derived from the file text afterwards.
type Turn struct {
	Role    Role
	Content string
}

// RoleForIndex returns the role of the block at the given position in the
// delimiter split. Even positions are user turns, odd positions assistant.
func RoleForIndex(i int) Role {
	if i%2 == 0 {
		return RoleUser
	}
	return RoleAssistant
}
