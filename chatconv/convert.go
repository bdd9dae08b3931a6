// CLAUDE:SUMMARY Flattens a legacy tree-shaped chat export into a Record: pre-order walk, id-keyed history, currentId = last visited.
// Package chatconv migrates legacy chat exports, where replies hang off their
// parent as nested children, into the flat chat record format.
package chatconv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/docload/idgen"
)

// Option configures a Converter.
type Option func(*Converter)

// WithIDGenerator sets the generator for record, user and fallback chat ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(c *Converter) { c.newID = gen }
}

// WithClock sets the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// Converter turns LegacyExport values into Records. It holds no per-call
// state and is safe for concurrent use.
type Converter struct {
	newID  idgen.Generator
	now    func() time.Time
	logger *slog.Logger
}

// NewConverter returns a Converter minting UUID v4 ids against the wall clock.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		newID:  idgen.UUIDv4(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ConvertJSON decodes a legacy export and converts it.
func (c *Converter) ConvertJSON(data []byte) (*Record, error) {
	var in LegacyExport
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	return c.Convert(in)
}

// Convert flattens the tree rooted at in.Messages[0]. An export without
// messages yields a record with an empty history and a nil CurrentID.
func (c *Converter) Convert(in LegacyExport) (*Record, error) {
	var root *LegacyMessage
	if len(in.Messages) > 0 {
		root = &in.Messages[0]
		if len(in.Messages) > 1 {
			c.logger.Warn("chatconv: ignoring extra root messages",
				"conversation_id", in.ConversationID, "ignored", len(in.Messages)-1)
		}
	}

	messages, err := flatten(root)
	if err != nil {
		return nil, err
	}

	history := History{Messages: make(map[string]Message, len(messages))}
	for _, m := range messages {
		history.Messages[m.ID] = m
	}
	if n := len(messages); n > 0 {
		id := messages[n-1].ID
		history.CurrentID = &id
	}
	if messages == nil {
		messages = []Message{}
	}

	chatID := in.ConversationID
	if chatID == "" {
		chatID = c.newID()
	}
	now := c.now().UTC().Unix()

	return &Record{
		ID:     c.newID(),
		UserID: c.newID(),
		Title:  in.Title,
		Chat: Chat{
			ID:       chatID,
			Title:    in.Title,
			Models:   []string{modelOrDefault(in.Options.Model)},
			Params:   paramsFrom(in.Options),
			History:  history,
			Messages: messages,
		},
		UpdatedAt: now,
		CreatedAt: now,
		Meta:      map[string]any{},
	}, nil
}

// flatten walks the tree in pre-order: a node, then each child subtree in
// the order given. Iterative so deep threads cannot exhaust the stack.
func flatten(root *LegacyMessage) ([]Message, error) {
	if root == nil {
		return nil, nil
	}
	var out []Message
	stack := []*LegacyMessage{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m, err := convertMessage(node)
		if err != nil {
			return nil, err
		}
		out = append(out, m)

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, &node.Children[i])
		}
	}
	return out, nil
}

func convertMessage(node *LegacyMessage) (Message, error) {
	if node.MessageID == "" {
		return Message{}, fmt.Errorf("%w: message without messageId", ErrInvalidExport)
	}
	ts, err := parseTimestamp(node.CreatedAt)
	if err != nil {
		return Message{}, &TimestampFormatError{MessageID: node.MessageID, Value: node.CreatedAt, Err: err}
	}

	children := make([]string, 0, len(node.Children))
	for _, ch := range node.Children {
		children = append(children, ch.MessageID)
	}

	role := RoleAssistant
	if node.IsCreatedByUser {
		role = RoleUser
	}

	return Message{
		ID:          node.MessageID,
		ParentID:    parentID(node.ParentMessageID),
		ChildrenIDs: children,
		Role:        role,
		Content:     node.Text,
		Timestamp:   ts,
		Models:      []string{modelOrDefault(node.Model)},
	}, nil
}

func parentID(p *string) *string {
	if p == nil || *p == "" || *p == SentinelParentID {
		return nil
	}
	id := *p
	return &id
}

func modelOrDefault(m string) string {
	if m == "" {
		return DefaultModel
	}
	return m
}

func paramsFrom(o LegacyOptions) Params {
	p := Params{
		Temperature:      DefaultTemperature,
		MaxContextTokens: DefaultMaxContextTokens,
		MaxTokens:        DefaultMaxTokens,
	}
	if o.Temperature != nil {
		p.Temperature = *o.Temperature
	}
	if o.MaxContextTokens != nil {
		p.MaxContextTokens = int(*o.MaxContextTokens)
	}
	if o.MaxTokens != nil {
		p.MaxTokens = int(*o.MaxTokens)
	}
	return p
}

// Offset-less layouts are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp converts an ISO 8601 instant to unix seconds.
func parseTimestamp(s string) (int64, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", s); err == nil {
		return t.Unix(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return 0, err
}
