package model

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

type AgentType string

const (
	AgentTypePodcastDaily     AgentType = "podcast_daily"
	AgentTypeMarketAnalysis   AgentType = "market_analysis"
	AgentTypeEmailSummary     AgentType = "email_summary"
	AgentTypeContentGenerator AgentType = "content_generator"
	AgentTypeCodeAssistant    AgentType = "code_assistant"
)

var AgentTypes = []AgentType{
	AgentTypePodcastDaily,
	AgentTypeMarketAnalysis,
	AgentTypeEmailSummary,
	AgentTypeContentGenerator,
	AgentTypeCodeAssistant,
}

const (
	DefaultAgentName = "jarvis"
	DefaultNewsCount = 8
	DefaultLanguage  = "pt-BR"
	DefaultVoice     = "pt-BR-FranciscaNeural"
)

type PodcastRequest struct {
	ID        string         `json:"id"`
	AgentType AgentType      `json:"agent_type" validate:"agent_type"`
	AgentName string         `json:"agent_name" validate:"max=64"`
	UserID    string         `json:"user_id" validate:"max=128"`
	NewsCount int            `json:"news_count" validate:"min=1,max=50"`
	Language  string         `json:"language" validate:"max=16,language_tag"`
	Voice     string         `json:"voice" validate:"max=128"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// WithDefaults fills every unset field with its default value.
func (r PodcastRequest) WithDefaults() PodcastRequest {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.AgentType == "" {
		r.AgentType = AgentTypePodcastDaily
	}
	if r.AgentName == "" {
		r.AgentName = DefaultAgentName
	}
	if r.NewsCount == 0 {
		r.NewsCount = DefaultNewsCount
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Voice == "" {
		r.Voice = DefaultVoice
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

func (r PodcastRequest) DeepCopy() PodcastRequest {
	c := r
	c.Metadata = maps.Clone(r.Metadata)
	return c
}

// NewsItem is passed through the pipeline untouched. PublishedAt keeps the
// news service's text as is (it is often empty or a naive timestamp) and
// fields the orchestrator does not know about are carried in Extra.
type NewsItem struct {
	Title       string                     `json:"title"`
	Summary     string                     `json:"summary"`
	Source      string                     `json:"source"`
	URL         string                     `json:"url"`
	PublishedAt string                     `json:"published_at"`
	Language    string                     `json:"language,omitempty"`
	Category    *string                    `json:"category,omitempty"`
	Extra       map[string]json.RawMessage `json:"-"`
}

var newsItemFields = []string{"title", "summary", "source", "url", "published_at", "language", "category"}

func (n *NewsItem) UnmarshalJSON(data []byte) error {
	type plain NewsItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range newsItemFields {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*n = NewsItem(p)
	return nil
}

func (n NewsItem) MarshalJSON() ([]byte, error) {
	type plain NewsItem
	data, err := json.Marshal(plain(n))
	if err != nil || len(n.Extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range n.Extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func (n NewsItem) DeepCopy() NewsItem {
	c := n
	if n.Category != nil {
		category := *n.Category
		c.Category = &category
	}
	c.Extra = maps.Clone(n.Extra)
	return c
}

type PodcastResult struct {
	JobID                string     `json:"job_id"`
	AgentName            string     `json:"agent_name"`
	AgentType            AgentType  `json:"agent_type"`
	Status               JobStatus  `json:"status"`
	Script               string     `json:"script"`
	AudioPath            string     `json:"audio_path"`
	AudioDuration        float64    `json:"audio_duration"`
	NewsUsed             []NewsItem `json:"news_used"`
	MemoryRecalled       string     `json:"memory_recalled"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          time.Time  `json:"completed_at"`
	ExecutionTimeSeconds float64    `json:"execution_time_seconds"`
}

func (r PodcastResult) DeepCopy() PodcastResult {
	c := r
	if r.NewsUsed != nil {
		c.NewsUsed = make([]NewsItem, len(r.NewsUsed))
		for i, n := range r.NewsUsed {
			c.NewsUsed[i] = n.DeepCopy()
		}
	}
	return c
}
