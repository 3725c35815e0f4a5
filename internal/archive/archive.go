// Package archive reads and writes the Markdown archive file format:
// optional YAML frontmatter, a parent declaration, a Sub-activities
// section, and dated ## YYYY-MM-DD sections holding one line per record.
package archive

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/dagaz/internal/models"
)

// Placeholder is the literal marker the linker expands into a child list.
const Placeholder = "{Auto-generated}"

// SubActivitiesHeading introduces the section holding the placeholder.
const SubActivitiesHeading = "## Sub-activities"

var (
	dateHeadingRe = regexp.MustCompile(`^## (\d{4}-\d{2}-\d{2})$`)
	parentRe      = regexp.MustCompile(`\*\*Parent\*\*:\s*\[\[([^\]\|]+)\]\]`)
)

// Entry is one collected line inside a dated section.
type Entry struct {
	Date string
	Line string // without the leading "- "
}

// Scaffold returns the initial content for a new archive file.
// Sub-keys declare their parent; top-level activities get a
// Sub-activities section with the placeholder for the linker.
func Scaffold(key string) []byte {
	var b strings.Builder
	b.WriteString("---\ntags: [")
	if strings.HasPrefix(key, models.ProjectPrefix) {
		b.WriteString("project")
	} else {
		b.WriteString("activity-log")
	}
	b.WriteString("]\n---\n\n# ")
	b.WriteString(key)
	b.WriteString("\n")

	switch {
	case key == models.ReminderKey || key == "reminders":
		// Reminders carry neither hierarchy section.
	case strings.HasPrefix(key, models.ProjectPrefix):
		// Projects are flat.
	case strings.Contains(key, "."):
		parent := key[:strings.LastIndex(key, ".")]
		b.WriteString("\n**Parent**: [[" + parent + "]]\n")
	default:
		b.WriteString("\n" + SubActivitiesHeading + "\n\n" + Placeholder + "\n")
	}
	return []byte(b.String())
}

// HasEntry reports whether the dated section already holds a byte-identical
// line. This is the deduplication predicate: no two identical
// (date, line) pairs may coexist in one file.
func HasEntry(data []byte, date, line string) bool {
	lines := strings.Split(string(data), "\n")
	start, end := section(lines, date)
	if start < 0 {
		return false
	}
	want := "- " + line
	for i := start + 1; i < end; i++ {
		if lines[i] == want {
			return true
		}
	}
	return false
}

// AppendEntry returns data with the line appended to the dated section,
// creating the section at the end of the file when absent. Callers are
// expected to consult HasEntry first; AppendEntry does not re-check.
func AppendEntry(data []byte, date, line string) []byte {
	lines := strings.Split(string(data), "\n")
	entry := "- " + line

	start, end := section(lines, date)
	if start < 0 {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		lines = append(lines, "", "## "+date, "", entry, "")
		return []byte(strings.Join(lines, "\n"))
	}

	ins := start + 1
	for i := start + 1; i < end; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			ins = i + 1
		}
	}
	if ins == start+1 && ins < end && strings.TrimSpace(lines[ins]) == "" {
		ins++ // keep the blank line between heading and first entry
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:ins]...)
	out = append(out, entry)
	out = append(out, lines[ins:]...)
	return []byte(strings.Join(out, "\n"))
}

// section returns the line index of the "## date" heading and the index of
// the next heading (or len), or (-1, -1) when the section does not exist.
func section(lines []string, date string) (int, int) {
	heading := "## " + date
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == heading {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			end = i
			break
		}
	}
	return start, end
}

// Entries returns every collected line in document order, paired with the
// date of its enclosing section.
func Entries(data []byte) []Entry {
	var out []Entry
	date := ""
	for _, l := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(l)
		if m := dateHeadingRe.FindStringSubmatch(trimmed); m != nil {
			date = m[1]
			continue
		}
		if strings.HasPrefix(trimmed, "## ") {
			date = "" // left the dated part of the file
			continue
		}
		if date == "" || !strings.HasPrefix(l, "- ") {
			continue
		}
		out = append(out, Entry{Date: date, Line: l[2:]})
	}
	return out
}

// Parent returns the declared parent key, or "" when the file has no
// parent declaration. Child declarations are authoritative; the parent
// side is derived from them by the linker.
func Parent(data []byte) string {
	m := parentRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

// ExpandChildren replaces the placeholder under the Sub-activities heading
// with a sorted child list. Files without the placeholder, and parents with
// no declared children, are returned unchanged (changed == false), which
// makes repeated runs a no-op.
func ExpandChildren(data []byte, children []string) ([]byte, bool) {
	if len(children) == 0 || !strings.Contains(string(data), Placeholder) {
		return data, false
	}

	sorted := append([]string(nil), children...)
	sort.Strings(sorted)
	var repl []string
	for _, c := range sorted {
		repl = append(repl, "- [["+c+"]]")
	}

	lines := strings.Split(string(data), "\n")
	inSection := false
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == SubActivitiesHeading {
			inSection = true
			continue
		}
		if strings.HasPrefix(trimmed, "## ") {
			inSection = false
			continue
		}
		if inSection && trimmed == Placeholder {
			out := make([]string, 0, len(lines)+len(repl)-1)
			out = append(out, lines[:i]...)
			out = append(out, repl...)
			out = append(out, lines[i+1:]...)
			return []byte(strings.Join(out, "\n")), true
		}
	}
	return data, false
}
