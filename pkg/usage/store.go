// Package usage keeps per-completion token accounting with JSON persistence.
package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	DayKey           string    `json:"day_key"`
	ChannelID        string    `json:"channel_id"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
}

type Filter struct {
	ChannelID string
	DayKey    string
	Model     string
	Limit     int
}

type Aggregate struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Store holds records in memory and mirrors them to usage.json under the
// given directory. An empty directory keeps the store memory-only.
type Store struct {
	mu      sync.RWMutex
	records []Record
	path    string
}

func NewStore(dir string) *Store {
	s := &Store{
		records: make([]Record, 0, 256),
	}
	if dir == "" {
		return s
	}
	_ = os.MkdirAll(dir, 0755)
	s.path = filepath.Join(dir, "usage.json")
	s.load()
	return s
}

func (s *Store) TodayKey() string {
	return time.Now().UTC().Format("2006-01-02")
}

func (s *Store) Add(r Record) {
	if r.DayKey == "" {
		r.DayKey = s.TodayKey()
	}
	if r.TotalTokens == 0 {
		r.TotalTokens = r.PromptTokens + r.CompletionTokens
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()

	s.save()
}

// RecordUsage satisfies the AI client's accounting hook.
func (s *Store) RecordUsage(model, channelID string, promptTokens, completionTokens, totalTokens int) {
	s.Add(Record{
		ChannelID:        channelID,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
	})
}

func (s *Store) Query(f Filter) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if f.ChannelID != "" && r.ChannelID != f.ChannelID {
			continue
		}
		if f.DayKey != "" && r.DayKey != f.DayKey {
			continue
		}
		if f.Model != "" && !strings.EqualFold(r.Model, f.Model) {
			continue
		}
		out = append(out, r)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

func AggregateRecords(records []Record) Aggregate {
	var agg Aggregate
	for _, r := range records {
		agg.Calls++
		agg.PromptTokens += r.PromptTokens
		agg.CompletionTokens += r.CompletionTokens
		agg.TotalTokens += r.TotalTokens
	}
	return agg
}

// ModelBreakdown groups records by model name.
func ModelBreakdown(records []Record) map[string]Aggregate {
	out := map[string]Aggregate{}
	for _, r := range records {
		m := strings.TrimSpace(r.Model)
		if m == "" {
			m = "unknown"
		}
		agg := out[m]
		agg.Calls++
		agg.PromptTokens += r.PromptTokens
		agg.CompletionTokens += r.CompletionTokens
		agg.TotalTokens += r.TotalTokens
		out[m] = agg
	}
	return out
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	s.records = records
}

func (s *Store) save() {
	if s.path == "" {
		return
	}
	s.mu.RLock()
	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0644)
}
