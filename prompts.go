package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

// Prompt template names
const (
	PromptIdeas    = "ideas"
	PromptPlan     = "plan"
	PromptResearch = "research"
	PromptDraft    = "draft"
	PromptRefine   = "refine"
)

//go:embed config/persona.md
var defaultPersona string

//go:embed config/*.tmpl
var promptFS embed.FS

// requiredPromptVariables lists the variables each template must reference.
// An override that drops one of them would silently lose caller input.
var requiredPromptVariables = map[string][]string{
	PromptIdeas:    {"{{.Niche}}", "{{.Count}}"},
	PromptPlan:     {"{{.Niche}}", "{{.Platforms}}", "{{.Duration}}", "{{.DateContext}}"},
	PromptResearch: {"{{.DateContext}}", "{{.Topic}}", "{{.Facts}}"},
	PromptDraft:    {"{{.Platform}}", "{{.Topic}}", "{{.Tone}}", "{{.Research}}"},
	PromptRefine:   {"{{.Draft}}", "{{.DateContext}}"},
}

type ideasPrompt struct {
	Niche string
	Count int
}

type planPrompt struct {
	Niche       string
	Platforms   string
	Duration    string
	DateContext string
}

type researchPrompt struct {
	DateContext string
	Topic       string
	Facts       string
}

type draftPrompt struct {
	Platform string
	Topic    string
	Tone     string
	Research string
}

type refinePrompt struct {
	Draft       string
	DateContext string
}

// PromptLibrary holds the persona and the parsed prompt templates
type PromptLibrary struct {
	persona   string
	templates map[string]*template.Template
	sources   map[string]string
}

// LoadPrompts loads the persona and every prompt template, preferring files
// from the override directory and falling back to the embedded defaults.
func LoadPrompts(overrides *ConfigOverrides) (*PromptLibrary, error) {
	lib := &PromptLibrary{
		persona:   strings.TrimSpace(defaultPersona),
		templates: make(map[string]*template.Template, len(requiredPromptVariables)),
		sources:   make(map[string]string, len(requiredPromptVariables)),
	}

	if overrides != nil && overrides.PersonaPath != nil {
		data, err := os.ReadFile(*overrides.PersonaPath)
		if err != nil {
			return nil, fmt.Errorf("reading persona file %s: %w", *overrides.PersonaPath, err)
		}
		lib.persona = strings.TrimSpace(string(data))
		if lib.persona == "" {
			return nil, fmt.Errorf("persona file %s is empty", *overrides.PersonaPath)
		}
	}

	for name := range requiredPromptVariables {
		text, source, err := readPromptTemplate(name, overrides)
		if err != nil {
			return nil, err
		}
		tmpl, err := parsePromptTemplate(name, text)
		if err != nil {
			return nil, fmt.Errorf("%s (%s): %w", name, source, err)
		}
		lib.templates[name] = tmpl
		lib.sources[name] = source
	}

	return lib, nil
}

// readPromptTemplate returns the template text and where it came from
func readPromptTemplate(name string, overrides *ConfigOverrides) (string, string, error) {
	if overrides != nil && overrides.PromptsDir != nil {
		path := filepath.Join(*overrides.PromptsDir, name+".tmpl")
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("reading prompt %s: %w", path, err)
		}
	}

	data, err := promptFS.ReadFile("config/" + name + ".tmpl")
	if err != nil {
		return "", "", fmt.Errorf("reading embedded prompt %s: %w", name, err)
	}
	return string(data), "embedded", nil
}

// parsePromptTemplate validates required variables and parses the template
func parsePromptTemplate(name, text string) (*template.Template, error) {
	for _, variable := range requiredPromptVariables[name] {
		if !strings.Contains(text, variable) {
			return nil, fmt.Errorf("%s prompt template must contain %s variable", name, variable)
		}
	}
	return template.New(name).Option("missingkey=error").Parse(text)
}

// Persona returns the system role used for every completion call
func (l *PromptLibrary) Persona() string {
	return l.persona
}

// Render executes the named template with data
func (l *PromptLibrary) Render(name string, data any) (string, error) {
	tmpl, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Sources maps each template name to the file it was loaded from, sorted by name
func (l *PromptLibrary) Sources() [][2]string {
	names := make([]string, 0, len(l.sources))
	for name := range l.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([][2]string, 0, len(names))
	for _, name := range names {
		out = append(out, [2]string{name, l.sources[name]})
	}
	return out
}
