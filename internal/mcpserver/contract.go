package mcpserver

// TaggingGuide describes the tag and description conventions that LLM
// consumers should follow when updating clip metadata.
const TaggingGuide = `# Clipvault Tagging Guide

Clip metadata in Clipvault consists of a free-text description and a
flat set of tags. Follow these conventions when updating either.

## Tags

1. **Lowercase, kebab-case.** Use ` + "`" + `field-recording` + "`" + `, not ` + "`" + `Field Recording` + "`" + `.
2. **One concept per tag.** Prefer two tags (` + "`" + `drums` + "`" + `, ` + "`" + `loop` + "`" + `) over a
   compound one (` + "`" + `drum-loop` + "`" + `) unless the compound is an established genre
   or instrument name.
3. **Recommended facets** (use when they apply):
   - instrument: ` + "`" + `drums` + "`" + `, ` + "`" + `bass` + "`" + `, ` + "`" + `piano` + "`" + `, ` + "`" + `vocals` + "`" + `, ` + "`" + `synth` + "`" + `
   - character: ` + "`" + `loop` + "`" + `, ` + "`" + `one-shot` + "`" + `, ` + "`" + `ambient` + "`" + `, ` + "`" + `percussive` + "`" + `
   - source: ` + "`" + `field-recording` + "`" + `, ` + "`" + `studio` + "`" + `, ` + "`" + `synthesized` + "`" + `
   - mood: ` + "`" + `dark` + "`" + `, ` + "`" + `bright` + "`" + `, ` + "`" + `aggressive` + "`" + `, ` + "`" + `calm` + "`" + `
4. **Updates replace the whole set.** Include every tag the clip should
   keep, not just the ones you are adding.

## Descriptions

1. One or two sentences, plain text. No Markdown markup.
2. Describe what the clip *sounds like* and where it came from, not its
   technical format (channels and sample rate are indexed separately).
3. Mention tempo or key when known (e.g. "120 BPM drum loop in A minor").

## Paths

File paths are library-relative, use forward slashes, and end with
` + "`" + `.wav` + "`" + `. Renames go through the rename operation, never through
metadata updates.
`
