// Package prompts turns a named template file into the instruction sent to
// the model.
//
// Templates are plain text files named <type>.txt. Three placeholders are
// replaced, in this order and exactly once: {{topic}}, {{subtopic}},
// {{user_feedback}}. Values that themselves contain placeholder syntax are
// not substituted again. Unknown placeholders are left as they are.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	TopicPlaceholder    = "{{topic}}"
	SubtopicPlaceholder = "{{subtopic}}"
	FeedbackPlaceholder = "{{user_feedback}}"
)

var ErrTemplateNotFound = errors.New("prompt template not found")

type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

func (r *Renderer) Dir() string {
	return r.dir
}

func (r *Renderer) path(promptType string) string {
	return filepath.Join(r.dir, promptType+".txt")
}

// Render loads <promptType>.txt and fills the placeholders. A missing
// template yields an error wrapping ErrTemplateNotFound that names both the
// requested type and the path that was tried.
func (r *Renderer) Render(promptType, topic, subtopic, feedback string) (string, error) {
	path := r.path(promptType)

	if !validType(promptType) {
		return "", fmt.Errorf("%w: %q at %s", ErrTemplateNotFound, promptType, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q at %s", ErrTemplateNotFound, promptType, path)
		}
		return "", fmt.Errorf("read prompt template %q: %w", promptType, err)
	}

	return Fill(string(content), topic, subtopic, feedback), nil
}

// Fill performs the single-pass literal substitution.
func Fill(template, topic, subtopic, feedback string) string {
	// strings.NewReplacer scans the original text once, so a value that
	// contains "{{subtopic}}" is never expanded by a later placeholder.
	return strings.NewReplacer(
		TopicPlaceholder, topic,
		SubtopicPlaceholder, subtopic,
		FeedbackPlaceholder, feedback,
	).Replace(template)
}

// Types lists the available prompt types (template file stems), sorted.
func (r *Renderer) Types() []string {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.txt"))
	if err != nil {
		return nil
	}

	types := make([]string, 0, len(matches))
	for _, m := range matches {
		types = append(types, strings.TrimSuffix(filepath.Base(m), ".txt"))
	}
	sort.Strings(types)
	return types
}

func validType(promptType string) bool {
	if promptType == "" || promptType == "." || promptType == ".." {
		return false
	}
	return !strings.ContainsAny(promptType, `/\`) && !strings.Contains(promptType, "..")
}
