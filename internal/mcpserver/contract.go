package mcpserver

// NotationContract describes the journal notation and archive file format
// for LLM consumers reading the collected archives.
const NotationContract = `# Dagaz Activity Notation

Activity records are written inline in free-form daily journal text and
collected into one Markdown archive per activity.

## Notation

` + "```" + `
piano.c:: 45min Bach
w:: 40min reservoir, 30min park
dev:: 1hr rust:: 20min refactor
P.website-redesign:: 2hr wireframes
r:: friday 9am: renew passport
` + "```" + `

## Rules

1. **Reification boundary.** ` + "`" + `key:: value` + "`" + ` inside a sentence; prose
   without ` + "`" + `::` + "`" + ` is ignored. An entry ends at a sentence boundary.
2. **Keys** are lowercase, dot-separated paths (` + "`" + `piano.c` + "`" + `). The
   ` + "`" + `P.` + "`" + ` prefix marks projects; ` + "`" + `r` + "`" + ` is reserved
   for reminders (` + "`" + `<when>: <message>` + "`" + `).
3. **Chained sub-keys.** A second ` + "`" + `key::` + "`" + ` inside one entry scopes
   under the first key's leading component: ` + "`" + `dev:: 1hr rust:: 20min` + "`" + `
   files under ` + "`" + `dev` + "`" + ` and ` + "`" + `dev.rust` + "`" + `.
4. **Siblings.** Comma-separated values share the key and become
   independent records.
5. **Typed tokens**, matched in this order: time-span ` + "`" + `HHMM-HHMM` + "`" + `,
   duration ` + "`" + `45min` + "`" + `/` + "`" + `2hr30min` + "`" + `, currency
   ` + "`" + `£25` + "`" + `/` + "`" + `$12.50` + "`" + `, distance ` + "`" + `5km` + "`" + `/` + "`" + `3mi` + "`" + `,
   steps ` + "`" + `3500` + "`" + ` or ` + "`" + `10k-steps` + "`" + `. Everything else is a tag.
6. **Mentions.** ` + "`" + `@key` + "`" + ` in a value cross-references another
   activity; the mentioned activity's archive gains a ` + "`" + `- Mention: ` + "`" + ` line.

## Archive format

` + "```" + `markdown
---
tags: [activity-log]
---

# piano.c

**Parent**: [[piano]]

## 2026-08-30

- 45min Bach
` + "```" + `

Top-level activities carry a ` + "`" + `## Sub-activities` + "`" + ` section whose
` + "`" + `{Auto-generated}` + "`" + ` placeholder is expanded into the sorted child
list. No two identical lines ever coexist within one dated section.

These archives are read-only from MCP: records enter them exclusively
through the collection pipeline.
`
