package astrolog

import (
	"strconv"
	"strings"
	"sync"
)

// segmentKind identifies one parsed element of a format template.
type segmentKind int

const (
	segLiteral segmentKind = iota
	segDate
	segContent
	segSeverity
	segSeparator
	segFile
	segFunction
	segLine
	segLoggerName
	segLineBreak
	segThread
	segUnknown
)

// segment is one step of a rendering plan: either literal text or a
// directive with its parsed option.
type segment struct {
	kind   segmentKind
	option string // directive option: time layout, casing, thread selector
	before int    // separator blank lines before the banner
	after  int    // separator blank lines after the banner
}

// Plan is the compiled, reusable representation of one format template.
// Rendering walks the segment list; a plan is never mutated after Compile.
type Plan struct {
	template string
	segments []segment
}

// Template returns the raw template string the plan was compiled from.
func (p *Plan) Template() string {
	return p.template
}

// Compile parses a template into a plan. A directive is the marker '%'
// followed by one letter; a doubled marker emits a literal marker; anything
// else is literal text. Option micro-grammar after a '-':
//
//	d  layout text, up to the next marker or end of template
//	s  exactly one character (u/l)
//	t  exactly one character (n/i)
//	r  maximal run of digits and dots
//
// Other directives take no option. If no content directive appears anywhere,
// one is appended so the record text is never dropped.
func Compile(template string) *Plan {
	plan := &Plan{template: template}
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			plan.segments = append(plan.segments, segment{kind: segLiteral, option: literal.String()})
			literal.Reset()
		}
	}

	hasContent := false
	i := 0
	for i < len(template) {
		c := template[i]
		if c != formatMarker {
			literal.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(template) {
			// Trailing lone marker is literal text
			literal.WriteByte(c)
			i++
			continue
		}
		next := template[i+1]
		if next == formatMarker {
			literal.WriteByte(formatMarker)
			i += 2
			continue
		}
		if !isDirectiveLetter(next) {
			literal.WriteByte(c)
			i++
			continue
		}

		flush()
		i += 2
		option := ""
		if i < len(template) && template[i] == '-' && directiveTakesOption(next) {
			option, i = consumeOption(template, next, i+1)
		}
		seg := buildSegment(next, option)
		if seg.kind == segContent {
			hasContent = true
		}
		plan.segments = append(plan.segments, seg)
	}
	flush()

	if !hasContent {
		plan.segments = append(plan.segments, segment{kind: segContent})
	}
	return plan
}

// isDirectiveLetter reports whether b can start a directive. Unknown letters
// still parse as directives and render empty.
func isDirectiveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// directiveTakesOption reports whether a dash after the letter introduces an
// option rather than literal text.
func directiveTakesOption(letter byte) bool {
	switch letter {
	case 'd', 's', 't', 'r':
		return true
	}
	return false
}

// consumeOption reads the option for letter starting at pos, returning the
// option text and the index of the first unconsumed byte.
func consumeOption(template string, letter byte, pos int) (string, int) {
	switch letter {
	case 'd':
		end := strings.IndexByte(template[pos:], formatMarker)
		if end < 0 {
			return template[pos:], len(template)
		}
		return template[pos : pos+end], pos + end
	case 's', 't':
		if pos < len(template) {
			return template[pos : pos+1], pos + 1
		}
		return "", pos
	case 'r':
		end := pos
		for end < len(template) && (template[end] == '.' || (template[end] >= '0' && template[end] <= '9')) {
			end++
		}
		return template[pos:end], end
	}
	return "", pos
}

// buildSegment maps a directive letter and option to a plan segment.
func buildSegment(letter byte, option string) segment {
	switch letter {
	case 'd':
		return segment{kind: segDate, option: option}
	case 'm':
		return segment{kind: segContent}
	case 's':
		return segment{kind: segSeverity, option: option}
	case 'r':
		return buildSeparator(option)
	case 'f':
		return segment{kind: segFile}
	case 'c':
		return segment{kind: segFunction}
	case 'l':
		return segment{kind: segLine}
	case 'g':
		return segment{kind: segLoggerName}
	case 'n':
		return segment{kind: segLineBreak}
	case 't':
		return segment{kind: segThread, option: option}
	}
	return segment{kind: segUnknown}
}

// buildSeparator parses the separator option: empty emits the default banner
// with one line break on each side; "n" or "n.m" set the blank-line counts
// before and after; anything non-numeric falls back to the default.
func buildSeparator(option string) segment {
	seg := segment{kind: segSeparator, before: 1, after: 1}
	if option == "" {
		return seg
	}
	parts := strings.SplitN(option, ".", 2)
	before, err := strconv.Atoi(parts[0])
	if err != nil || before < 0 {
		return segment{kind: segSeparator, before: 1, after: 1}
	}
	after := before
	if len(parts) == 2 {
		after, err = strconv.Atoi(parts[1])
		if err != nil || after < 0 {
			return segment{kind: segSeparator, before: 1, after: 1}
		}
	}
	seg.before = before
	seg.after = after
	return seg
}

// Render produces the final text for a record by walking the plan.
func (p *Plan) Render(rec *Record) string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteString(renderSegment(seg, rec))
	}
	return b.String()
}

// renderSegment evaluates one segment. A panic in any directive yields an
// empty substitution so a single bad segment never aborts the whole render.
func renderSegment(seg segment, rec *Record) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	switch seg.kind {
	case segLiteral:
		return seg.option
	case segDate:
		layout := seg.option
		if layout == "" {
			layout = defaultTimeLayout
		}
		return rec.Time.Format(layout)
	case segContent:
		return rec.Content
	case segSeverity:
		name := rec.Severity.String()
		switch seg.option {
		case "u":
			return strings.ToUpper(name)
		case "l":
			return strings.ToLower(name)
		}
		return name
	case segSeparator:
		return strings.Repeat("\n", seg.before) + defaultSeparatorBanner + strings.Repeat("\n", seg.after)
	case segFile:
		return rec.File
	case segFunction:
		return rec.Function
	case segLine:
		return strconv.Itoa(rec.Line)
	case segLoggerName:
		return rec.LoggerName
	case segLineBreak:
		return "\n"
	case segThread:
		switch seg.option {
		case "i":
			return strconv.FormatUint(rec.GoroutineID, 10)
		case "n":
			// Goroutines carry no name
			return ""
		}
		return ""
	}
	return ""
}

// planCache keeps one plan per distinct template, shared across all loggers
// using the same registry. Concurrent first compiles are serialized by the
// write lock: the first insert wins and later callers reuse it.
type planCache struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

func newPlanCache() *planCache {
	return &planCache{plans: make(map[string]*Plan)}
}

// lookup returns the cached plan for template, compiling it on first use.
func (c *planCache) lookup(template string) *Plan {
	c.mu.RLock()
	plan := c.plans[template]
	c.mu.RUnlock()
	if plan != nil {
		return plan
	}

	built := Compile(template)

	c.mu.Lock()
	defer c.mu.Unlock()
	if plan := c.plans[template]; plan != nil {
		return plan
	}
	c.plans[template] = built
	return built
}

// size reports the number of cached plans.
func (c *planCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}
