package extract

import (
	"strings"
)

// DefaultWindow bounds the text read after an identity anchor, in runes
const DefaultWindow = 200

// Ordinal positions of the demographic segments relative to the segment
// base of a document layout
const (
	OffsetGender    = 0
	OffsetEthnicity = 1
	OffsetBirth     = 2
	OffsetEducation = 3
)

// leadingPunct is stripped between the anchor and the first segment
const leadingPunct = "：:，, \t\n"

// Window returns the passage following anchor: leading punctuation is
// dropped, the text is bounded to limit runes and cut at the first newline
// or full stop.
func Window(text, anchor string, limit int) (string, bool) {
	if text == "" || anchor == "" {
		return "", false
	}

	idx := strings.Index(text, anchor)
	if idx < 0 {
		return "", false
	}

	rest := strings.TrimLeft(text[idx+len(anchor):], leadingPunct)
	if limit <= 0 {
		limit = DefaultWindow
	}
	if runes := []rune(rest); len(runes) > limit {
		rest = string(runes[:limit])
	}

	if cut := strings.IndexAny(rest, "\n。"); cut >= 0 {
		rest = rest[:cut]
	}

	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

// LineWindow is Window for an anchor that must open a line: only blanks may
// precede it on its line. Occurrences inside a longer token are skipped.
func LineWindow(text, anchor string, limit int) (string, bool) {
	if text == "" || anchor == "" {
		return "", false
	}

	for off := 0; off < len(text); {
		i := strings.Index(text[off:], anchor)
		if i < 0 {
			return "", false
		}
		at := off + i
		lineStart := strings.LastIndexByte(text[:at], '\n') + 1
		if strings.TrimSpace(text[lineStart:at]) == "" {
			return Window(text[at:], anchor, limit)
		}
		off = at + len(anchor)
	}
	return "", false
}

// Segments splits a window on the Chinese comma. ASCII commas and the
// enumeration comma are part of a segment.
func Segments(window string) []string {
	parts := strings.Split(window, "，")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		segments = append(segments, strings.TrimSpace(p))
	}
	return segments
}

// Segment reads the segment at a fixed ordinal. Too few segments, or an
// empty segment, is a failure.
func Segment(window string, ordinal int) (string, bool) {
	if ordinal < 0 {
		return "", false
	}
	segments := Segments(window)
	if ordinal >= len(segments) {
		return "", false
	}
	seg := segments[ordinal]
	return seg, seg != ""
}

// BirthSegment trims the trailing 生/出生 of a birth segment
func BirthSegment(seg string) string {
	seg = strings.TrimSuffix(seg, "出生")
	seg = strings.TrimSuffix(seg, "生")
	return strings.TrimSpace(seg)
}

// EducationSegment trims the trailing 学历 of an education segment
func EducationSegment(seg string) string {
	return strings.TrimSpace(strings.TrimSuffix(seg, "学历"))
}

// Explicit non-member statuses. Checked before the member markers since
// 非中共党员 contains 中共党员.
var nonMemberMarkers = []string{
	"非中共党员", "非党员", "群众", "无党派",
	"民革", "民盟", "民建", "民进", "农工党", "致公党", "九三学社", "台盟",
}

var memberMarkers = []string{"中共党员", "中共预备党员", "加入中国共产党"}

// PartyMembership derives membership from an identity window: 是 for a
// member marker, 否 for an explicit non-member status. A window stating
// neither yields false.
func PartyMembership(window string) (string, bool) {
	if ContainsAny(window, nonMemberMarkers) {
		return "否", true
	}
	if ContainsAny(window, memberMarkers) {
		return "是", true
	}
	return "", false
}
