// Package prompts renders the per-call-site instruction templates. Templates are Go
// text/templates; missing fields render as zero values.
package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

type Template struct {
	Name    string
	Version int
	text    string
	tmpl    *template.Template
}

func Parse(name string, version int, text string) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("missing prompt name")
	}
	if version <= 0 {
		return nil, fmt.Errorf("invalid version for %s", name)
	}
	t, err := template.New(name).Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s template parse: %w", name, err)
	}
	return &Template{Name: name, Version: version, text: text, tmpl: t}, nil
}

// MustParse is for package-level templates.
func MustParse(name string, version int, text string) *Template {
	t, err := Parse(name, version, text)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(data any) (string, error) {
	var b bytes.Buffer
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%s render: %w", t.Name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Fingerprint identifies the template text and version in audit rows without storing it.
func (t *Template) Fingerprint() string {
	h := sha256.Sum256([]byte(strings.TrimSpace(t.Name) + "|" + strconv.Itoa(t.Version) + "|" + strings.TrimSpace(t.text)))
	return hex.EncodeToString(h[:8])
}

var funcs = template.FuncMap{
	"numbered": Numbered,
	"join":     strings.Join,
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}

// Numbered prefixes each line with its 1-based line number so models can cite line ranges.
func Numbered(code string) string {
	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	width := len(strconv.Itoa(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d | %s", width, i+1, line)
	}
	return b.String()
}
