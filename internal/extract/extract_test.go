package extract

import (
	"regexp"
	"testing"
)

const filingIdentity = "关于对张三同志立案审查调查的报告\n" +
	"一、张三同志基本情况，男，汉族，1970年5月生，大学本科学历，1993年7月加入中国共产党，现任某县交通运输局局长。\n" +
	"二、张三同志涉嫌违纪违法问题\n"

func TestWindow_Scenario(t *testing.T) {
	window, ok := Window(filingIdentity, "一、张三同志基本情况", DefaultWindow)
	if !ok {
		t.Fatal("Expected anchor to be found")
	}

	expected := "男，汉族，1970年5月生，大学本科学历，1993年7月加入中国共产党，现任某县交通运输局局长"
	if window != expected {
		t.Errorf("Expected window %q, got %q", expected, window)
	}
}

func TestWindow_MissingAnchor(t *testing.T) {
	if _, ok := Window(filingIdentity, "一、李四同志基本情况", DefaultWindow); ok {
		t.Error("Expected missing anchor to fail")
	}
	if _, ok := Window("", "一、张三同志基本情况", DefaultWindow); ok {
		t.Error("Expected empty text to fail")
	}
}

func TestWindow_SkipsLeadingNewline(t *testing.T) {
	text := "现将具体情况报告如下：\n张三，男，汉族\n其他内容"
	window, ok := Window(text, "现将具体情况报告如下", DefaultWindow)
	if !ok {
		t.Fatal("Expected anchor to be found")
	}
	if window != "张三，男，汉族" {
		t.Errorf("Expected window cut at newline, got %q", window)
	}
}

func TestLineWindow(t *testing.T) {
	text := "关于给予张三同志处分的决定\n李张三，女，回族\n  张三，男，汉族\n"

	window, ok := LineWindow(text, "张三，", DefaultWindow)
	if !ok {
		t.Fatal("Expected anchor at line start to be found")
	}
	if window != "男，汉族" {
		t.Errorf("Expected window of the line opened by the anchor, got %q", window)
	}

	if _, ok := LineWindow("李张三，女，回族", "张三，", DefaultWindow); ok {
		t.Error("Expected anchor inside a longer name to fail")
	}
	if window, _ := LineWindow("张三，男", "张三，", DefaultWindow); window != "男" {
		t.Errorf("Expected anchor at text start to match, got %q", window)
	}
}

func TestWindow_RuneLimit(t *testing.T) {
	text := "基本情况，男，汉族，1970年5月生"
	window, ok := Window(text, "基本情况", 4)
	if !ok {
		t.Fatal("Expected anchor to be found")
	}
	if window != "男，汉族" {
		t.Errorf("Expected window bounded to 4 runes, got %q", window)
	}
}

func TestSegment_Ordinals(t *testing.T) {
	window := "男，汉族，1970年5月生，大学本科学历"

	tests := []struct {
		ordinal  int
		expected string
		ok       bool
	}{
		{OffsetGender, "男", true},
		{OffsetEthnicity, "汉族", true},
		{OffsetBirth, "1970年5月生", true},
		{OffsetEducation, "大学本科学历", true},
		{4, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := Segment(window, tt.ordinal)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("Segment(%d) = (%q, %v), expected (%q, %v)", tt.ordinal, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestSegments_OnlyChineseComma(t *testing.T) {
	segments := Segments("男,汉族、满族，1970年5月")
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d: %v", len(segments), segments)
	}
	if segments[0] != "男,汉族、满族" {
		t.Errorf("Expected ASCII and enumeration commas kept, got %q", segments[0])
	}
}

func TestBirthAndEducationSegments(t *testing.T) {
	if got := BirthSegment("1970年5月生"); got != "1970年5月" {
		t.Errorf("Expected 1970年5月, got %q", got)
	}
	if got := BirthSegment("1970年5月出生"); got != "1970年5月" {
		t.Errorf("Expected 1970年5月, got %q", got)
	}
	if got := EducationSegment("大学本科学历"); got != "大学本科" {
		t.Errorf("Expected 大学本科, got %q", got)
	}
	if got := EducationSegment("研究生"); got != "研究生" {
		t.Errorf("Expected 研究生, got %q", got)
	}
}

func TestPartyMembership(t *testing.T) {
	tests := []struct {
		window   string
		expected string
		ok       bool
	}{
		{"男，汉族，中共党员", "是", true},
		{"男，汉族，1993年7月加入中国共产党", "是", true},
		{"男，汉族，中共预备党员", "是", true},
		{"男，汉族，群众", "否", true},
		{"男，汉族，民盟盟员", "否", true},
		{"男，汉族，非中共党员", "否", true},
		{"男，汉族，1970年5月生，大学本科学历，现任某局局长", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := PartyMembership(tt.window)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("PartyMembership(%q) = (%q, %v), expected (%q, %v)", tt.window, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestTitleName(t *testing.T) {
	template := regexp.MustCompile(`关于给予(.+?)同志.*?处分的决定`)

	name, ok := TitleName("关于给予张三同志党内警告处分的决定\n正文", template)
	if !ok || name != "张三" {
		t.Errorf("Expected (张三, true), got (%q, %v)", name, ok)
	}

	if _, ok := TitleName("关于张三同志的处理意见", template); ok {
		t.Error("Expected non-matching title to fail")
	}
	if _, ok := TitleName("", template); ok {
		t.Error("Expected empty text to fail")
	}
	if _, ok := TitleName("关于给予张三同志处分的决定", nil); ok {
		t.Error("Expected nil template to fail")
	}
}

func TestDateAfter(t *testing.T) {
	text := "经研究，决定给予张三开除党籍处分。\n本处分决定自2025年3月20日起生效。"

	got, ok := DateAfter(text, "本处分决定自", 30)
	if !ok || got != "2025-03-20" {
		t.Errorf("Expected (2025-03-20, true), got (%q, %v)", got, ok)
	}

	if _, ok := DateAfter(text, "本处分决定自", 3); ok {
		t.Error("Expected date beyond window to fail")
	}
	if _, ok := DateAfter(text, "案件审理室于", 30); ok {
		t.Error("Expected missing anchor to fail")
	}
	if _, ok := DateAfter("本处分决定自即日起生效", "本处分决定自", 30); ok {
		t.Error("Expected missing date to fail")
	}
}

func TestSignatureDate(t *testing.T) {
	tests := []struct {
		desc     string
		text     string
		expected string
		ok       bool
	}{
		{"arabic", "正文\n中共某县纪委\n2024年6月1日", "2024-06-01", true},
		{"numerals with trailing blank lines", "正文\n二〇二五年三月二十日\n\n  \n", "2025-03-20", true},
		{"no date on last line", "正文2024年6月1日\n某县纪委", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := SignatureDate(tt.text)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestKeywordContainment(t *testing.T) {
	text := "决定给予张三开除党籍处分，Warning"

	if !Contains(text, "开除党籍") {
		t.Error("Expected keyword to be found")
	}
	if !Contains(text, "开除") {
		t.Error("Expected keyword inside a longer token to count")
	}
	if Contains(text, "warning") {
		t.Error("Expected containment to be case-sensitive")
	}
	if Contains(text, "") {
		t.Error("Expected empty keyword to never match")
	}

	kw, ok := FirstKeyword(text, []string{"留党察看", "开除党籍", "开除"})
	if !ok || kw != "开除党籍" {
		t.Errorf("Expected first keyword 开除党籍, got %q", kw)
	}

	found := Keywords(text, []string{"开除", "警告", "开除党籍", "开除"})
	if len(found) != 2 || found[0] != "开除" || found[1] != "开除党籍" {
		t.Errorf("Expected [开除 开除党籍], got %v", found)
	}

	if ContainsAny(text, []string{"记过", "降级"}) {
		t.Error("Expected no keyword to be found")
	}
}

func TestParagraph(t *testing.T) {
	text := filingIdentity +
		"张三利用职务便利，为他人谋取利益，\n  收受财物共计人民币20万元。\n" +
		"三、处置意见\n建议立案。"

	got, ok := Paragraph(text, "二、{name}同志涉嫌违纪违法问题", "三、", Context{SubjectName: "张三"})
	if !ok {
		t.Fatal("Expected paragraph to be found")
	}

	expected := "张三利用职务便利，为他人谋取利益，收受财物共计人民币20万元。"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestParagraph_RunsToEndOfDocument(t *testing.T) {
	text := "二、反映李四同志的主要问题\n反映李四违规收受礼金。"
	got, ok := Paragraph(text, "二、反映{name}同志的主要问题", "三、", Context{SubjectName: "李四"})
	if !ok || got != "反映李四违规收受礼金。" {
		t.Errorf("Expected paragraph to run to end, got (%q, %v)", got, ok)
	}
}

func TestParagraph_Failures(t *testing.T) {
	text := "二、张(三同志涉嫌违纪违法问题\n内容"

	tests := []struct {
		desc string
		name string
		text string
	}{
		{"name not in document", "李四", filingIdentity},
		{"name breaks pattern compilation", "张(三", text},
		{"no subject name", "", filingIdentity},
		{"empty text", "张三", ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, ok := Paragraph(tt.text, "二、{name}同志涉嫌违纪违法问题", "三、", Context{SubjectName: tt.name}); ok {
				t.Error("Expected paragraph extraction to fail")
			}
		})
	}
}

func TestContextFill(t *testing.T) {
	ctx := Context{SubjectName: "张三"}
	if got, ok := ctx.Fill("一、{name}同志基本情况"); !ok || got != "一、张三同志基本情况" {
		t.Errorf("Expected filled template, got (%q, %v)", got, ok)
	}
	if got, ok := (Context{}).Fill("现将具体情况报告如下"); !ok || got != "现将具体情况报告如下" {
		t.Errorf("Expected template without placeholder unchanged, got (%q, %v)", got, ok)
	}
	if _, ok := (Context{}).Fill("{name}，"); ok {
		t.Error("Expected placeholder without name to fail")
	}
}
