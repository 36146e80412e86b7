// Package kb loads the static knowledge base: the assistant persona and
// the portfolio projects whose snippets get injected into prompts.
package kb

import (
	"fmt"
	"os"
	"strings"

	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Project struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	TechStack   []string `yaml:"tech_stack"`
	Keywords    []string `yaml:"keywords"`
}

type Assistant struct {
	Name              string `yaml:"name"`
	SystemInstruction string `yaml:"system_instruction"`
}

type KnowledgeBase struct {
	Assistant Assistant `yaml:"assistant"`
	Projects  []Project `yaml:"projects"`
}

// Load parses the YAML knowledge base. A missing file is not fatal: the
// assistant runs without portfolio context.
func Load(path string) *KnowledgeBase {
	raw, err := os.ReadFile(path)
	if err != nil {
		logging.AppLogger.Warn("knowledge base not found, running without portfolio context",
			zap.String("path", path), zap.Error(err))
		return &KnowledgeBase{}
	}
	var k KnowledgeBase
	if err := yaml.Unmarshal(raw, &k); err != nil {
		logging.ErrorLogger.Error("failed to parse knowledge base", zap.String("path", path), zap.Error(err))
		return &KnowledgeBase{}
	}
	logging.AppLogger.Info("knowledge base loaded",
		zap.String("path", path), zap.Int("projects", len(k.Projects)))
	return &k
}

func (k *KnowledgeBase) SystemInstruction() string {
	return k.Assistant.SystemInstruction
}

// RelevantContext returns a context block for every project whose keyword
// appears in the message, or "" when nothing matches.
func (k *KnowledgeBase) RelevantContext(message string) string {
	lower := strings.ToLower(message)

	var parts []string
	for _, p := range k.Projects {
		for _, kw := range p.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				parts = append(parts, fmt.Sprintf("- Project: %s (%s): %s Tech Stack: %s",
					p.Name, p.Type, p.Description, strings.Join(p.TechStack, ", ")))
				break
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\n[Relevant Portfolio Context]:\n" + strings.Join(parts, "\n") +
		"\nUse this context if relevant to the user's query.\n"
}
