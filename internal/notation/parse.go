package notation

import (
	"regexp"
	"strings"

	"github.com/starford/dagaz/internal/models"
)

var keyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// Diagnostic describes a locally recovered parse problem. Diagnostics never
// abort a run; callers surface them in verbose mode.
type Diagnostic struct {
	Segment string
	Message string
}

// ParseContext carries the root key scope of a single entry. Context never
// crosses sentence boundaries, so a fresh value is built per entry.
type ParseContext struct {
	Root string
}

// Qualify resolves a chained sub-key against the context. Already-dotted
// sub-keys are taken verbatim; flat sub-keys inherit the root's leading
// component (dev + rust -> dev.rust).
func (c ParseContext) Qualify(sub string) string {
	if strings.Contains(sub, ".") {
		return sub
	}
	root := c.Root
	if i := strings.Index(root, "."); i >= 0 {
		root = root[:i]
	}
	return root + "." + sub
}

// Parse extracts typed records from raw journal text for the given date.
// Malformed segments degrade into diagnostics rather than errors.
func Parse(text, date string) ([]models.Record, []Diagnostic) {
	var records []models.Record
	var diags []Diagnostic
	for _, seg := range SplitEntries(text) {
		rs, ds := parseEntry(seg, date)
		records = append(records, rs...)
		diags = append(diags, ds...)
	}
	return records, diags
}

// pair is one key:: value unit inside an entry.
type pair struct {
	key   string
	value string
}

// splitPairs locates the :: markers of a segment and returns the key/value
// pairs in order. A marker only counts when the token before it is a valid
// key; anything else stays inside the preceding value.
func splitPairs(seg string) []pair {
	type mark struct {
		keyStart int
		valStart int
		key      string
	}
	var marks []mark
	for i := 0; i+1 < len(seg); i++ {
		if seg[i] != ':' || seg[i+1] != ':' {
			continue
		}
		start := i
		for start > 0 && !isSpace(seg[start-1]) {
			start--
		}
		key := seg[start:i]
		if !keyRe.MatchString(key) {
			i++
			continue
		}
		marks = append(marks, mark{keyStart: start, valStart: i + 2, key: key})
		i++
	}

	pairs := make([]pair, 0, len(marks))
	for j, m := range marks {
		end := len(seg)
		if j+1 < len(marks) {
			end = marks[j+1].keyStart
		}
		pairs = append(pairs, pair{key: m.key, value: strings.TrimSpace(seg[m.valStart:end])})
	}
	return pairs
}

func parseEntry(seg, date string) ([]models.Record, []Diagnostic) {
	pairs := splitPairs(seg)
	if len(pairs) == 0 {
		return nil, []Diagnostic{{Segment: seg, Message: "no recognized key:: boundary"}}
	}

	ctx := ParseContext{Root: pairs[0].key}

	var records []models.Record
	var diags []Diagnostic
	for i, p := range pairs {
		key := p.key
		if i > 0 {
			key = ctx.Qualify(p.key)
		}

		if i == 0 && key == models.ReminderKey {
			rec, ds := buildReminder(p.value, date, seg)
			diags = append(diags, ds...)
			if rec != nil {
				records = append(records, *rec)
			}
			continue
		}

		for _, sib := range strings.Split(p.value, ",") {
			sib = strings.TrimSpace(sib)
			if sib == "" {
				continue
			}
			attrs := ClassifyValue(sib)
			records = append(records, models.Record{
				Date:        date,
				Key:         key,
				RawValue:    sib,
				Attributes:  attrs,
				SourceEntry: seg,
			})
		}

		if strings.TrimSpace(p.value) == "" {
			// A root that only introduces sub-keys is fine; a key with no
			// value at all is dropped.
			if !(i == 0 && len(pairs) > 1) {
				diags = append(diags, Diagnostic{Segment: seg, Message: "empty value for key " + key})
			}
		}
	}
	return records, diags
}

// buildReminder handles the reserved key r, whose value follows
// "<when>: <message>". The value is filed as a single untyped record:
// reminder text may contain commas, so sibling expansion does not apply.
func buildReminder(value, date, seg string) (*models.Record, []Diagnostic) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, []Diagnostic{{Segment: seg, Message: "empty reminder"}}
	}
	var diags []Diagnostic
	if !strings.Contains(value, ":") {
		diags = append(diags, Diagnostic{Segment: seg, Message: "reminder without when: message separator"})
	}
	return &models.Record{
		Date:        date,
		Key:         models.ReminderKey,
		RawValue:    value,
		Attributes:  []models.Attribute{{Kind: models.KindTag, Literal: value}},
		SourceEntry: seg,
	}, diags
}

// ClassifyValue classifies every token of one sibling value. Only the first
// duration-like token keeps its type; later ones are demoted to tags so a
// record never carries two durations.
func ClassifyValue(value string) []models.Attribute {
	var attrs []models.Attribute
	durationSeen := false
	for _, token := range strings.Fields(value) {
		a := Classify(strings.TrimRight(token, ","))
		if IsDurationLike(a) {
			if durationSeen {
				a = models.Attribute{Kind: models.KindTag, Literal: a.Literal}
			}
			durationSeen = true
		}
		attrs = append(attrs, a)
	}
	return attrs
}
