// Package templating renders notification and document templates by
// substituting {key} and {{key}} placeholders with context values.
package templating

import (
	"strings"
	"time"
)

// CurrentDateKey is injected into every render unless the caller sets it.
const CurrentDateKey = "current_date"

// Context maps placeholder names to already formatted values.
type Context map[string]string

// Merge returns a new context where later contexts override earlier ones.
func Merge(contexts ...Context) Context {
	size := 0
	for _, c := range contexts {
		size += len(c)
	}
	out := make(Context, size)
	for _, c := range contexts {
		for k, v := range c {
			out[k] = v
		}
	}
	return out
}

// Engine renders templates with company and bank fields as the lowest
// priority layers.
type Engine struct {
	company    Context
	bank       Context
	dateLayout string
	now        func() time.Time
}

// Options configures an Engine.
type Options struct {
	Company    Context
	Bank       Context
	DateLayout string
	Now        func() time.Time
}

// NewEngine builds an Engine. DateLayout is a Go time layout.
func NewEngine(opts Options) *Engine {
	layout := opts.DateLayout
	if layout == "" {
		layout = "02/01/2006"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{company: opts.Company, bank: opts.Bank, dateLayout: layout, now: now}
}

// Render merges company < bank < fields, injects current_date when missing
// and substitutes placeholders.
func (e *Engine) Render(tmpl string, fields Context) string {
	return Render(tmpl, e.Context(fields))
}

// Context returns the merged context Render would use.
func (e *Engine) Context(fields Context) Context {
	merged := Merge(e.company, e.bank, fields)
	if _, ok := merged[CurrentDateKey]; !ok {
		merged[CurrentDateKey] = e.now().Format(e.dateLayout)
	}
	return merged
}

// Render substitutes {{key}} and {key} placeholders in a single pass. Values
// are inserted literally and never scanned again. Placeholders without a
// value are removed from the output.
func Render(tmpl string, ctx Context) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); {
		if tmpl[i] != '{' {
			next := strings.IndexByte(tmpl[i:], '{')
			if next < 0 {
				b.WriteString(tmpl[i:])
				break
			}
			b.WriteString(tmpl[i : i+next])
			i += next
			continue
		}
		name, width, ok := placeholderAt(tmpl[i:])
		if !ok {
			b.WriteByte('{')
			i++
			continue
		}
		if v, found := ctx[strings.TrimSpace(name)]; found {
			b.WriteString(v)
		}
		i += width
	}
	return b.String()
}

// placeholderAt reports the name and total width of a placeholder starting at
// s[0]. Double braces are tried first, then single braces. Names may not
// contain braces.
func placeholderAt(s string) (name string, width int, ok bool) {
	if strings.HasPrefix(s, "{{") {
		if end := strings.Index(s[2:], "}}"); end >= 0 {
			inner := s[2 : 2+end]
			if !strings.ContainsAny(inner, "{}") {
				return inner, end + 4, true
			}
		}
	}
	end := strings.IndexByte(s[1:], '}')
	if end < 0 {
		return "", 0, false
	}
	inner := s[1 : 1+end]
	if strings.ContainsRune(inner, '{') {
		return "", 0, false
	}
	return inner, end + 2, true
}
