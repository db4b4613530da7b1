package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// DeepReadingPromptData for template injection
type DeepReadingPromptData struct {
	Title        string
	Channel      string
	Interests    []Interest
	Weights      ScoringWeights
	MaxMainLines int
	Lang         string
	Transcript   string
}

// DrillDownPromptData for template injection
type DrillDownPromptData struct {
	Title      string
	Channel    string
	Index      int
	MainLine   MainLine
	WordLimit  int
	Lang       string
	Transcript string
}

// PromptManager handles loading and processing prompt templates
type PromptManager struct {
	promptFile   string
	promptString string
	configDir    string
}

// NewPromptManager creates a new prompt manager. promptSetting overrides the
// deep reading template and may be a file path or the template itself.
func NewPromptManager(configDir, promptSetting string) *PromptManager {
	pm := &PromptManager{
		configDir: configDir,
	}

	if promptSetting != "" {
		if IsLikelyFilePath(promptSetting) && FileExists(promptSetting) {
			pm.promptFile = promptSetting
		} else {
			pm.promptString = promptSetting
		}
	}

	return pm
}

// DeepReadingPrompt renders the deep reading prompt
func (pm *PromptManager) DeepReadingPrompt(data DeepReadingPromptData) (string, error) {
	var tmplContent string
	switch {
	case pm.promptString != "":
		tmplContent = pm.promptString
	case pm.promptFile != "":
		content, err := os.ReadFile(pm.promptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt template: %w", err)
		}
		tmplContent = string(content)
	default:
		content, err := pm.loadTemplate(deepReadingPromptFile)
		if err != nil {
			return "", err
		}
		tmplContent = content
	}
	return renderPrompt("deep_reading", tmplContent, data)
}

// DrillDownPrompt renders the drill-down prompt
func (pm *PromptManager) DrillDownPrompt(data DrillDownPromptData) (string, error) {
	content, err := pm.loadTemplate(drillDownPromptFile)
	if err != nil {
		return "", err
	}
	return renderPrompt("drill_down", content, data)
}

// loadTemplate reads name from the config directory, falling back to the
// embedded default when the user has not created one
func (pm *PromptManager) loadTemplate(name string) (string, error) {
	if pm.configDir != "" {
		path := filepath.Join(pm.configDir, name)
		if FileExists(path) {
			content, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("reading prompt template: %w", err)
			}
			return string(content), nil
		}
	}
	content, err := defaultFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading embedded prompt template: %w", err)
	}
	return string(content), nil
}

var promptFuncs = template.FuncMap{
	"ordinal": ordinal,
}

func renderPrompt(name, templateContent string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}

// ordinal formats n as 1st, 2nd, 3rd, 4th...
func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// IsLikelyFilePath uses heuristics to determine if a string is likely a file path
func IsLikelyFilePath(s string) bool {
	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	if strings.Contains(s, ".txt") || strings.Contains(s, ".md") ||
		strings.Contains(s, ".template") || strings.Contains(s, ".tmpl") {
		return true
	}

	// Long strings are prompts, not paths
	if len(s) > 200 {
		return false
	}

	return !strings.Contains(s, " ") && !strings.Contains(s, "\n")
}
