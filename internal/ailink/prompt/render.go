package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Render produces the system and user messages for vars. Templates use
// {{name}} substitution and {{#if name}}...{{else}}...{{/if}} blocks; a
// variable counts as set when it is non-blank.
func (p *Prompt) Render(vars map[string]string) (system string, user string, err error) {
	if p == nil {
		return "", "", errors.New("prompt is required")
	}
	for _, name := range p.Config.Input.RequiredVariables {
		if strings.TrimSpace(vars[name]) == "" {
			return "", "", fmt.Errorf("required variable %q not provided", name)
		}
	}

	system = substitute(expandConditionals(p.Config.SystemTemplate, vars), vars)
	if strings.TrimSpace(system) == "" {
		return "", "", errors.New("system prompt is required")
	}

	userTmpl := p.Config.UserTemplate
	if strings.TrimSpace(userTmpl) == "" {
		userTmpl = "{{input}}"
	}
	user = substitute(expandConditionals(userTmpl, vars), vars)
	return strings.TrimSpace(system), strings.TrimSpace(user), nil
}

func substitute(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// expandConditionals resolves {{#if}} blocks innermost-last: each pass
// replaces the first opening tag together with its matching {{/if}}.
func expandConditionals(tmpl string, vars map[string]string) string {
	out := tmpl
	for {
		start := strings.Index(out, "{{#if")
		if start == -1 {
			return out
		}
		tagEnd := strings.Index(out[start:], "}}")
		if tagEnd == -1 {
			return out
		}
		tagEnd += start
		name := strings.TrimSpace(out[start+len("{{#if") : tagEnd])
		bodyStart := tagEnd + 2

		elseAt, elseEnd, closeAt, closeEnd := matchBlock(out, bodyStart)
		if closeAt == -1 {
			return out
		}

		whenSet := out[bodyStart:closeAt]
		whenUnset := ""
		if elseAt != -1 {
			whenSet = out[bodyStart:elseAt]
			whenUnset = out[elseEnd:closeAt]
		}
		chosen := whenUnset
		if strings.TrimSpace(vars[name]) != "" {
			chosen = whenSet
		}
		out = out[:start] + chosen + out[closeEnd:]
	}
}

// matchBlock scans from pos for the {{/if}} closing the current block,
// tracking nested blocks. It returns the bounds of a top-level {{else}} (or
// -1) and of the closing tag (or -1 when unterminated).
func matchBlock(s string, pos int) (elseAt, elseEnd, closeAt, closeEnd int) {
	elseAt, elseEnd = -1, -1
	nested := 0
	for {
		open := strings.Index(s[pos:], "{{")
		if open == -1 {
			return -1, -1, -1, -1
		}
		open += pos
		end := strings.Index(s[open:], "}}")
		if end == -1 {
			return -1, -1, -1, -1
		}
		end += open

		switch tag := strings.TrimSpace(s[open+2 : end]); {
		case strings.HasPrefix(tag, "#if"):
			nested++
		case tag == "/if":
			if nested == 0 {
				return elseAt, elseEnd, open, end + 2
			}
			nested--
		case tag == "else" && nested == 0 && elseAt == -1:
			elseAt, elseEnd = open, end+2
		}
		pos = end + 2
	}
}
