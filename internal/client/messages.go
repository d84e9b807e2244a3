package client

import "github.com/jarvis-platform/orchestrator/internal/store/model"

const (
	NewsFetchPath      = "/api/news/fetch"
	MemoryRecallPath   = "/api/memory/recall"
	MemoryStorePath    = "/api/memory/store"
	ScriptGeneratePath = "/api/script/generate"
	TTSGeneratePath    = "/api/tts/generate"
)

type NewsFetchRequest struct {
	Language string `json:"language"`
	Limit    int    `json:"limit"`
}

type NewsFetchResponse struct {
	News []model.NewsItem `json:"news"`
}

type MemoryRecallRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	UserID string `json:"user_id"`
}

type Memory struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type MemoryRecallResponse struct {
	Memories []Memory `json:"memories"`
}

type MemoryStoreRequest struct {
	UserID   string         `json:"user_id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type ScriptRequest struct {
	AgentName     string           `json:"agent_name"`
	AgentType     model.AgentType  `json:"agent_type"`
	News          []model.NewsItem `json:"news"`
	MemoryContext string           `json:"memory_context"`
	Language      string           `json:"language"`
}

type ScriptResponse struct {
	Script string `json:"script"`
}

type TTSRequest struct {
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	AgentName string `json:"agent_name"`
	Language  string `json:"language"`
}

type TTSResponse struct {
	AudioPath string  `json:"audio_path"`
	Duration  float64 `json:"duration"`
}
