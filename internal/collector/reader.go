package collector

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/logger"
	"github.com/dreynolds/ccmon-tui/internal/models"
)

// ErrDirNotFound indicates the Claude data directory does not exist.
var ErrDirNotFound = errors.New("data directory not found")

// maxLineSize bounds a single session log line. Tool results can embed large
// payloads.
const maxLineSize = 10 * 1024 * 1024

// Project is one project directory under <dataDir>/projects with its session
// log files.
type Project struct {
	EncodedPath  string
	DecodedPath  string
	DisplayName  string
	SessionFiles []string
}

// DecodeProjectPath reverses the directory-name encoding of project paths:
// "--" encodes ":\" (drive separator) and "-" encodes "\".
func DecodeProjectPath(encoded string) string {
	decoded := strings.ReplaceAll(encoded, "--", ":\\")
	return strings.ReplaceAll(decoded, "-", "\\")
}

// DisplayName extracts the last path component as a short project label.
func DisplayName(projectPath string) string {
	trimmed := strings.TrimRight(projectPath, "\\/")
	if i := strings.LastIndexAny(trimmed, "\\/"); i >= 0 {
		return trimmed[i+1:]
	}
	if trimmed == "" {
		return projectPath
	}
	return trimmed
}

// ListProjects enumerates project directories containing session logs.
func ListProjects(projectsDir string) ([]Project, error) {
	dirEntries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, projectsDir)
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	var projects []Project
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}

		encoded := entry.Name()
		files, err := filepath.Glob(filepath.Join(projectsDir, encoded, "*.jsonl"))
		if err != nil || len(files) == 0 {
			continue
		}
		sort.Strings(files)

		decoded := DecodeProjectPath(encoded)
		projects = append(projects, Project{
			EncodedPath:  encoded,
			DecodedPath:  decoded,
			DisplayName:  DisplayName(decoded),
			SessionFiles: files,
		})
	}

	return projects, nil
}

// sessionEvent is one raw line of a session log. Field names vary between
// log versions, so aliases are declared side by side and coalesced.
type sessionEvent struct {
	Type           string        `json:"type"`
	Message        *eventMessage `json:"message"`
	Timestamp      string        `json:"timestamp"`
	Cost           *float64      `json:"cost"`
	CostUSD        *float64      `json:"costUSD"`
	CostSnake      *float64      `json:"cost_usd"`
	Usage          *tokenUsage   `json:"usage"`
	MessageID      string        `json:"message_id"`
	RequestID      string        `json:"requestId"`
	RequestIDSnake string        `json:"request_id"`
}

type eventMessage struct {
	ID    string      `json:"id"`
	Model string      `json:"model"`
	Usage *tokenUsage `json:"usage"`
}

type tokenUsage struct {
	InputTokens        *uint64 `json:"input_tokens"`
	InputTokensCamel   *uint64 `json:"inputTokens"`
	PromptTokens       *uint64 `json:"prompt_tokens"`
	OutputTokens       *uint64 `json:"output_tokens"`
	OutputTokensCamel  *uint64 `json:"outputTokens"`
	CompletionTokens   *uint64 `json:"completion_tokens"`
	CacheCreation      *uint64 `json:"cache_creation_input_tokens"`
	CacheCreationCamel *uint64 `json:"cacheCreationInputTokens"`
	CacheRead          *uint64 `json:"cache_read_input_tokens"`
	CacheReadCamel     *uint64 `json:"cacheReadInputTokens"`
}

func coalesce(values ...*uint64) uint64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (u *tokenUsage) input() uint64 {
	return coalesce(u.InputTokens, u.InputTokensCamel, u.PromptTokens)
}

func (u *tokenUsage) output() uint64 {
	return coalesce(u.OutputTokens, u.OutputTokensCamel, u.CompletionTokens)
}

func (u *tokenUsage) cacheCreation() uint64 {
	return coalesce(u.CacheCreation, u.CacheCreationCamel)
}

func (u *tokenUsage) cacheRead() uint64 {
	return coalesce(u.CacheRead, u.CacheReadCamel)
}

func (e *sessionEvent) cost() *float64 {
	for _, c := range []*float64{e.Cost, e.CostUSD, e.CostSnake} {
		if c != nil {
			return c
		}
	}
	return nil
}

func (e *sessionEvent) messageID() string {
	if e.Message != nil && e.Message.ID != "" {
		return e.Message.ID
	}
	return e.MessageID
}

func (e *sessionEvent) requestID() string {
	if e.RequestID != "" {
		return e.RequestID
	}
	return e.RequestIDSnake
}

// dedupKey returns "messageID:requestID" when BOTH identifiers are present.
// Entries missing either are never deduplicated.
func (e *sessionEvent) dedupKey() string {
	mid, rid := e.messageID(), e.requestID()
	if mid == "" || rid == "" {
		return ""
	}
	return mid + ":" + rid
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// processEvent converts a raw event into a usage entry, or reports false for
// events carrying no token usage.
func processEvent(event *sessionEvent) (models.UsageEntry, bool) {
	if event.Timestamp == "" {
		return models.UsageEntry{}, false
	}
	timestamp, ok := parseTimestamp(event.Timestamp)
	if !ok {
		return models.UsageEntry{}, false
	}

	usage := extractUsage(event)
	if usage == nil {
		return models.UsageEntry{}, false
	}

	model := "claude-3-5-sonnet"
	if event.Message != nil && event.Message.Model != "" {
		model = event.Message.Model
	}

	var cost float64
	if c := event.cost(); c != nil {
		cost = *c
	} else {
		cost = CostUSD(model, usage.input(), usage.output(), usage.cacheCreation(), usage.cacheRead())
	}

	return models.UsageEntry{
		Timestamp:           timestamp,
		InputTokens:         usage.input(),
		OutputTokens:        usage.output(),
		CacheCreationTokens: usage.cacheCreation(),
		CacheReadTokens:     usage.cacheRead(),
		CostUSD:             cost,
		Model:               model,
		MessageID:           event.messageID(),
		RequestID:           event.requestID(),
	}, true
}

// extractUsage picks the token source by event type priority: assistant
// events prefer message.usage, others prefer the top-level usage block.
func extractUsage(event *sessionEvent) *tokenUsage {
	var messageUsage *tokenUsage
	if event.Message != nil {
		messageUsage = event.Message.Usage
	}

	sources := []*tokenUsage{event.Usage, messageUsage}
	if event.Type == "assistant" {
		sources = []*tokenUsage{messageUsage, event.Usage}
	}

	for _, source := range sources {
		if source == nil {
			continue
		}
		if source.input() > 0 || source.output() > 0 {
			return source
		}
	}
	return nil
}

// ReadSessionFile parses one JSONL session log, deduplicating within the
// file and keeping the last occurrence of each key. Malformed lines are
// skipped.
func ReadSessionFile(path string) ([]models.UsageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []models.UsageEntry
	index := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event sessionEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		entry, ok := processEvent(&event)
		if !ok {
			continue
		}

		if key := event.dedupKey(); key != "" {
			if i, seen := index[key]; seen {
				entries[i] = entry
				continue
			}
			index[key] = len(entries)
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("scan session file: %w", err)
	}
	return entries, nil
}

// LoadProjectEntries reads all session files of a project with cross-file
// deduplication, sorted by timestamp.
func LoadProjectEntries(project Project) []models.UsageEntry {
	var entries []models.UsageEntry
	index := make(map[string]int)

	for _, file := range project.SessionFiles {
		fileEntries, err := ReadSessionFile(file)
		if err != nil {
			logger.Warn("failed to read session file", "file", file, "err", err)
			continue
		}
		entries = mergeEntries(entries, fileEntries, index)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// mergeEntries folds new entries into the accumulated list, overwriting
// earlier occurrences of the same message/request pair.
func mergeEntries(entries, add []models.UsageEntry, index map[string]int) []models.UsageEntry {
	for _, entry := range add {
		if entry.MessageID != "" && entry.RequestID != "" {
			key := entry.MessageID + ":" + entry.RequestID
			if i, seen := index[key]; seen {
				entries[i] = entry
				continue
			}
			index[key] = len(entries)
		}
		entries = append(entries, entry)
	}
	return entries
}
