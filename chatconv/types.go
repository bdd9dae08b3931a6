package chatconv

// SentinelParentID is the all-zero id legacy exports use for "no parent".
const SentinelParentID = "00000000-0000-0000-0000-000000000000"

// Defaults substituted for missing legacy values.
const (
	DefaultModel            = "default-model"
	DefaultTemperature      = 0.7
	DefaultMaxContextTokens = 4096
	DefaultMaxTokens        = 4096
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LegacyExport is a chat transcript in the legacy tree-shaped format. The
// tree is rooted at Messages[0].
type LegacyExport struct {
	Title          string          `json:"title"`
	ConversationID string          `json:"conversationId,omitempty"`
	Options        LegacyOptions   `json:"options"`
	Messages       []LegacyMessage `json:"messages"`
}

// LegacyOptions are the model settings of a legacy export. Nil pointers mean
// the value was absent and the default applies. Token limits are decoded as
// floats since exports written by JavaScript may carry "4096.0".
type LegacyOptions struct {
	Model            string   `json:"model,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxContextTokens *float64 `json:"maxContextTokens,omitempty"`
	MaxTokens        *float64 `json:"max_tokens,omitempty"`
}

// LegacyMessage is one node of the legacy message tree.
type LegacyMessage struct {
	MessageID       string          `json:"messageId"`
	ParentMessageID *string         `json:"parentMessageId"`
	IsCreatedByUser bool            `json:"isCreatedByUser"`
	Text            string          `json:"text"`
	CreatedAt       string          `json:"createdAt"`
	Model           string          `json:"model,omitempty"`
	Children        []LegacyMessage `json:"children,omitempty"`
}

// Message is one message of a converted chat.
type Message struct {
	ID          string   `json:"id"`
	ParentID    *string  `json:"parentId"`
	ChildrenIDs []string `json:"childrenIds"`
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Timestamp   int64    `json:"timestamp"` // unix seconds
	Models      []string `json:"models"`
}

// History indexes messages by id. CurrentID points at the last message of
// the pre-order walk, or is nil for an empty chat.
type History struct {
	Messages  map[string]Message `json:"messages"`
	CurrentID *string            `json:"currentId"`
}

// Params are the generation settings carried over from the legacy options.
type Params struct {
	Temperature      float64 `json:"temperature"`
	MaxContextTokens int     `json:"maxContextTokens"`
	MaxTokens        int     `json:"max_tokens"`
}

// Chat is the payload stored in a record's chat column.
type Chat struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Models   []string  `json:"models"`
	Params   Params    `json:"params"`
	History  History   `json:"history"`
	Messages []Message `json:"messages"`
}

// Record is a converted chat ready to be persisted.
type Record struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Chat      Chat           `json:"chat"`
	UpdatedAt int64          `json:"updated_at"`
	CreatedAt int64          `json:"created_at"`
	Meta      map[string]any `json:"meta"`
	FolderID  *string        `json:"folder_id"`
}
