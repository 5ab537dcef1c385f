package prompt

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"
	"gopkg.in/yaml.v3"
)

//go:embed prompt.schema.json
var promptSchema []byte

type checkFunc func(payload []byte) error

var (
	validatorOnce sync.Once
	checkPrompt   checkFunc
	validatorErr  error
)

// Load parses and validates a prompt from markdown with YAML frontmatter.
func Load(source string, data []byte) (*Prompt, error) {
	cfg, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}
	if strings.TrimSpace(cfg.SystemTemplate) == "" {
		cfg.SystemTemplate = strings.TrimSpace(body)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate prompt %s: %w", source, err)
	}
	return &Prompt{Config: cfg, Source: source}, nil
}

// LoadFromDir reads every *.md prompt in dir.
func LoadFromDir(dir string) ([]*Prompt, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}
	out := make([]*Prompt, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- prompts dir is operator supplied
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", path, err)
		}
		p, err := Load(path, data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// splitFrontmatter separates a leading "---" delimited YAML block from the
// markdown body. Input without a frontmatter block is parsed as plain YAML.
func splitFrontmatter(data []byte) (Config, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Config{}, "", fmt.Errorf("empty prompt")
	}

	var cfg Config
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		if err := yaml.Unmarshal(trimmed, &cfg); err != nil {
			return Config{}, "", fmt.Errorf("invalid yaml: %w", err)
		}
		return cfg, "", nil
	}

	var front, body []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if !closed && strings.TrimSpace(line) == "---" {
			closed = true
			continue
		}
		if closed {
			body = append(body, line)
		} else {
			front = append(front, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, "", err
	}
	if !closed {
		return Config{}, "", fmt.Errorf("unterminated frontmatter")
	}
	if err := yaml.Unmarshal([]byte(strings.Join(front, "\n")), &cfg); err != nil {
		return Config{}, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return cfg, strings.Join(body, "\n"), nil
}

func validateConfig(cfg Config) error {
	validatorOnce.Do(func() {
		v, err := schema.NewValidator(promptSchema)
		if err != nil {
			validatorErr = err
			return
		}
		checkPrompt = func(payload []byte) error {
			diagnostics, err := v.ValidateJSON(payload)
			if err != nil {
				return err
			}
			if len(diagnostics) > 0 {
				return fmt.Errorf("schema validation failed: %s: %s", diagnostics[0].Pointer, diagnostics[0].Message)
			}
			return nil
		}
	})
	if validatorErr != nil {
		return fmt.Errorf("compile prompt schema: %w", validatorErr)
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return checkPrompt(payload)
}
