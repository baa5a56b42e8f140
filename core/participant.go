package core

// Role categorizes a participant's function in a group chat. Roles are
// compared by value so two participants with the same name and role are
// interchangeable for selection purposes.
type Role string

const (
	// RoleInitiator seeds the conversation with the opening message.
	RoleInitiator Role = "initiator"
	// RoleAssistant produces model-backed replies.
	RoleAssistant Role = "assistant"
	// RoleTerminator may only end conversations; policies route to it when
	// a chat needs an explicit closer.
	RoleTerminator Role = "terminator"
	// RoleExecutor executes function calls emitted by a previous turn and
	// reports results as plain text.
	RoleExecutor Role = "executor"
)

// Participant identifies an addressable entity able to produce a message in
// a conversation. The value is immutable once a conversation starts; speaker
// selection compares participants by value, never by pointer identity.
type Participant struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewParticipant constructs a participant value.
func NewParticipant(name string, role Role) Participant {
	return Participant{Name: name, Role: role}
}

// IsZero reports whether the participant is the zero value.
func (p Participant) IsZero() bool { return p.Name == "" && p.Role == "" }

// String returns "name (role)" for logging.
func (p Participant) String() string {
	if p.Role == "" {
		return p.Name
	}
	return p.Name + " (" + string(p.Role) + ")"
}
