package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Part is one text fragment of a multi-part model message.
type Part struct {
	Text string `json:"text"`
}

// TextContent is either a plain string or a list of parts. Providers disagree
// on the shape, so every consumer goes through AsText.
type TextContent struct {
	plain *string
	parts []Part
}

func Plain(s string) TextContent {
	return TextContent{plain: &s}
}

func Parts(parts ...Part) TextContent {
	return TextContent{parts: parts}
}

// IsParts reports whether the content arrived as a part list.
func (c TextContent) IsParts() bool {
	return c.plain == nil && c.parts != nil
}

// AsText flattens the content. Parts are concatenated without separators,
// matching how streaming providers split a single answer.
func (c TextContent) AsText() string {
	if c.plain != nil {
		return *c.plain
	}
	var sb strings.Builder
	for _, p := range c.parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (c TextContent) MarshalJSON() ([]byte, error) {
	if c.plain != nil {
		return json.Marshal(*c.plain)
	}
	if c.parts == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(c.parts)
}

func (c *TextContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Plain("")
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Plain(s)
		return nil
	case '[':
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Parts(parts...)
		return nil
	default:
		return fmt.Errorf("llm: unsupported content shape %q", string(data[:1]))
	}
}
