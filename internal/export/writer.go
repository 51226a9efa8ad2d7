package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/logging"
)

// RunMetadata describes one generation run. Written as _metadata.json
// next to the conversation files so a run directory is self-describing.
type RunMetadata struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	NumConversations int            `json:"num_conversations"`
	StatusCounts     map[string]int `json:"status_counts"`
	Personas         []string       `json:"personas"`
	MaxTurns         int            `json:"max_turns"`
	CustomerModel    string         `json:"customer_model"`
	RepModel         string         `json:"representative_model"`
}

// WriteRun writes each conversation as <conversation-id>.json into a fresh
// timestamped directory under baseDir and records run metadata alongside.
// Returns the run directory path.
func WriteRun(conversations []*conversation.Conversation, baseDir string, meta RunMetadata) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	dir := filepath.Join(baseDir, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	statusCounts := make(map[string]int)
	for _, conv := range conversations {
		if !conv.Status.IsTerminal() {
			return "", fmt.Errorf("conversation %s is still %s; refusing to export", conv.ID, conv.Status)
		}
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal conversation %s: %v", conv.ID, err)
		}
		path := filepath.Join(dir, conv.ID+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write conversation %s: %v", conv.ID, err)
		}
		statusCounts[conv.Status.String()]++
	}

	meta.GeneratedAt = time.Now().UTC()
	meta.NumConversations = len(conversations)
	meta.StatusCounts = statusCounts
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "_metadata.json"), metaData, 0644); err != nil {
		return "", fmt.Errorf("failed to write run metadata: %v", err)
	}

	logging.LogGenerationEvent("run_exported", map[string]interface{}{
		"dir":           dir,
		"conversations": len(conversations),
	})
	return dir, nil
}

// ReadRun loads every conversation file from a run directory, skipping the
// metadata file.
func ReadRun(dir string) ([]*conversation.Conversation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory: %v", err)
	}

	var out []*conversation.Conversation
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == "_metadata.json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", entry.Name(), err)
		}
		var conv conversation.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", entry.Name(), err)
		}
		out = append(out, &conv)
	}
	return out, nil
}
