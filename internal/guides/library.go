// Package guides holds the curated study-guide knowledge base. Guides are
// static YAML content keyed by normalized subject name; a missing guide is
// not an error, only "no curated material available".
package guides

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/edubot-ec/edubot/internal/textnorm"
)

// Library loads and serves study guides from the filesystem.
type Library struct {
	rootDir string
	topics  map[string][]TopicGuide // normalized subject -> guides
	mu      sync.RWMutex
}

// NewLibrary creates a library and loads all guide files under rootDir.
func NewLibrary(rootDir string) (*Library, error) {
	l := &Library{
		rootDir: rootDir,
		topics:  make(map[string][]TopicGuide),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading study guides: %w", err)
	}

	slog.Info("study guides loaded", "subjects", len(l.topics))
	return l, nil
}

// TopicCatalog returns every curated topic guide for a subject, or nil.
func (l *Library) TopicCatalog(subjectName string) []TopicGuide {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.topics[textnorm.Normalize(subjectName)]
}

// LookupTopic returns the guide whose name matches topicName under
// normalized equality.
func (l *Library) LookupTopic(subjectName, topicName string) (TopicGuide, bool) {
	for _, topic := range l.TopicCatalog(subjectName) {
		if textnorm.Equivalent(topic.Name, topicName) {
			return topic, true
		}
	}
	return TopicGuide{}, false
}

// LookupSubtopic returns a subtopic guide together with its parent topic.
func (l *Library) LookupSubtopic(subjectName, topicName, subtopicName string) (TopicGuide, SubtopicGuide, bool) {
	topic, ok := l.LookupTopic(subjectName, topicName)
	if !ok {
		return TopicGuide{}, SubtopicGuide{}, false
	}
	for _, sub := range topic.Subtopics {
		if textnorm.Equivalent(sub.Name, subtopicName) {
			return topic, sub, true
		}
	}
	return TopicGuide{}, SubtopicGuide{}, false
}

func (l *Library) loadAll() error {
	if l.rootDir == "" {
		return nil
	}
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return l.loadSubject(path)
	})
}

func (l *Library) loadSubject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file subjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid guide YAML", "path", path, "error", err)
		return nil
	}
	if file.Subject == "" || len(file.Topics) == 0 {
		return nil
	}

	key := textnorm.Normalize(file.Subject)
	l.mu.Lock()
	l.topics[key] = append(l.topics[key], file.Topics...)
	l.mu.Unlock()

	return nil
}
