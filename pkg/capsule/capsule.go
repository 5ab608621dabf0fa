package capsule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

/*
Capsule is the per-construct identity bundle: metadata, trait weights,
personality, the memory log, and transcript-derived topics and entities. It
is loaded wholesale from the remote store and never partially patched; an
explicit cache clear is the only invalidation.
*/
type Capsule struct {
	Metadata    Metadata           `json:"metadata"`
	Traits      map[string]float64 `json:"traits"`
	Personality Personality        `json:"personality_data"`
	MemoryLog   []LogEntry         `json:"memory_log"`
	Transcript  Transcript         `json:"transcript_data"`
}

type Metadata struct {
	InstanceName string    `json:"instance_name"`
	LastUpdated  time.Time `json:"last_updated_at"`
}

type Personality struct {
	CommunicationStyle string   `json:"communication_style"`
	Traits             []string `json:"traits"`
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Entry     string    `json:"entry"`
}

type Transcript struct {
	Topics        []string          `json:"topics"`
	Entities      map[string]Entity `json:"entities"`
	Relationships []string          `json:"relationships"`
}

type Entity struct {
	Score        float64  `json:"score"`
	MatchedWords []string `json:"matched_words"`
	Examples     []string `json:"examples"`
}

/*
Decode validates a raw bundle once at the storage boundary. Absent sections
default to empty values so the rest of the core never checks for nil maps or
missing fields.
*/
func Decode(raw json.RawMessage) (*Capsule, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var c Capsule
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("capsule: malformed bundle: %w", err)
	}

	if c.Traits == nil {
		c.Traits = map[string]float64{}
	}
	if c.Personality.Traits == nil {
		c.Personality.Traits = []string{}
	}
	if c.MemoryLog == nil {
		c.MemoryLog = []LogEntry{}
	}
	if c.Transcript.Topics == nil {
		c.Transcript.Topics = []string{}
	}
	if c.Transcript.Entities == nil {
		c.Transcript.Entities = map[string]Entity{}
	}
	if c.Transcript.Relationships == nil {
		c.Transcript.Relationships = []string{}
	}

	return &c, nil
}

/*
Summary renders the fixed-size persona snapshot the packer treats as
foundational. Topics and entities are capped so the snapshot stays small
regardless of how much transcript history the capsule carries.
*/
func (c *Capsule) Summary() string {
	if c == nil {
		return ""
	}

	var b strings.Builder

	if c.Metadata.InstanceName != "" {
		fmt.Fprintf(&b, "You are %s.", c.Metadata.InstanceName)
	}

	if c.Personality.CommunicationStyle != "" {
		fmt.Fprintf(&b, " Communication style: %s.", c.Personality.CommunicationStyle)
	}

	if len(c.Personality.Traits) > 0 {
		fmt.Fprintf(&b, " Traits: %s.", strings.Join(c.Personality.Traits, ", "))
	}

	if len(c.Transcript.Topics) > 0 {
		topics := c.Transcript.Topics
		if len(topics) > 5 {
			topics = topics[:5]
		}
		fmt.Fprintf(&b, " Recurring topics: %s.", strings.Join(topics, ", "))
	}

	if len(c.Transcript.Entities) > 0 {
		names := make([]string, 0, len(c.Transcript.Entities))
		for name := range c.Transcript.Entities {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			si, sj := c.Transcript.Entities[names[i]].Score, c.Transcript.Entities[names[j]].Score
			if si == sj {
				return names[i] < names[j]
			}
			return si > sj
		})
		if len(names) > 5 {
			names = names[:5]
		}
		fmt.Fprintf(&b, " Known entities: %s.", strings.Join(names, ", "))
	}

	return strings.TrimSpace(b.String())
}
