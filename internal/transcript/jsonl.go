package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// jsonlLine covers both accepted line shapes: chained session exports
// (type/uuid/parentUuid/message) and flat {"role","content"} lines.
type jsonlLine struct {
	Type       string       `json:"type"`
	UUID       string       `json:"uuid"`
	ParentUUID *string      `json:"parentUuid"`
	Timestamp  string       `json:"timestamp"`
	Message    *lineMessage `json:"message"`
	Role       string       `json:"role"`
	Content    string       `json:"content"`
}

type lineMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParseJSONL reads a JSONL chat export. Chained lines are ordered by
// following parentUuid links from each root; lines the walk misses keep
// their file order. Malformed lines and tool traffic are skipped.
func ParseJSONL(r io.Reader) ([]Message, error) {
	var (
		flat     []Message
		order    []string
		byUUID   = make(map[string]*jsonlLine)
		roots    []string
		children = make(map[string]string)
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		var line jsonlLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}

		if line.Message == nil {
			if (line.Role == RoleUser || line.Role == RoleAssistant) && line.Content != "" {
				flat = append(flat, Message{Role: line.Role, Content: line.Content, Timestamp: parseTime(line.Timestamp)})
			}
			continue
		}

		if line.Type != RoleUser && line.Type != RoleAssistant {
			continue
		}
		if _, dup := byUUID[line.UUID]; dup {
			continue
		}
		l := line
		byUUID[line.UUID] = &l
		order = append(order, line.UUID)
		if line.ParentUUID == nil || *line.ParentUUID == "" {
			roots = append(roots, line.UUID)
		} else {
			children[*line.ParentUUID] = line.UUID
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	var ordered []*jsonlLine
	visited := make(map[string]bool, len(byUUID))
	for _, rootID := range roots {
		for current := rootID; current != "" && !visited[current]; current = children[current] {
			if line, ok := byUUID[current]; ok {
				ordered = append(ordered, line)
				visited[current] = true
			}
		}
	}
	for _, id := range order {
		if !visited[id] {
			ordered = append(ordered, byUUID[id])
		}
	}

	msgs := flat
	for _, line := range ordered {
		text, isToolResult := blockText(line.Message.Content)
		if isToolResult || text == "" {
			continue
		}
		msgs = append(msgs, Message{
			Role:      line.Type,
			Content:   text,
			Timestamp: parseTime(line.Timestamp),
		})
	}
	return msgs, nil
}

func parseTime(s string) time.Time {
	ts, _ := time.Parse(time.RFC3339Nano, s)
	return ts
}

// blockText extracts the text of a message body, which is either a plain
// string or an array of content blocks. Tool results report true.
func blockText(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, false
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", false
	}
	for _, b := range blocks {
		if b.Type == "tool_result" {
			return "", true
		}
	}

	var text string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	return text, false
}
