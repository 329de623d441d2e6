package main

// Cue is what the displays should show after a navigation step.
type Cue struct {
	Index LineIndex
	Text  string
}

// clampIndex moves index by delta and keeps the result within [0, count].
// Negative deltas saturate at 0.
func clampIndex(index uint32, delta int, count int) uint32 {
	if count < 0 {
		count = 0
	}
	next := int64(index) + int64(delta)
	if next < 0 {
		return 0
	}
	if next > int64(count) {
		return uint32(count)
	}
	return uint32(next)
}

// cueFor returns the index and text to publish for the 1-based index into
// lines. Index 0 means nothing is shown. The blank sentinel keeps its
// position but surfaces as empty text.
func cueFor(index uint32, lines []Line) Cue {
	if index == 0 || int(index) > len(lines) {
		return Cue{Index: NoIndex}
	}
	text := lines[index-1].Text
	if text == BlankLine {
		text = ""
	}
	return Cue{Index: SomeIndex(index), Text: text}
}
