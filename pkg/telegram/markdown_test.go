package telegram

import (
	"reflect"
	"testing"
)

// TestParseMarkdownV2_Basic проверяет разбор жирного и курсивного текста.
func TestParseMarkdownV2_Basic(t *testing.T) {
	spans, err := parseMarkdownV2("привет *мир* и _все_")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	want := []mdSpan{
		{Kind: mdPlain, Text: "привет "},
		{Kind: mdBold, Text: "мир"},
		{Kind: mdPlain, Text: " и "},
		{Kind: mdItalic, Text: "все"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("ожидалось %+v, получено %+v", want, spans)
	}
}

// TestParseMarkdownV2_Underline убеждается, что __ не распадается на два курсива.
func TestParseMarkdownV2_Underline(t *testing.T) {
	spans, err := parseMarkdownV2("__низ__")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(spans) != 1 || spans[0].Kind != mdUnderline || spans[0].Text != "низ" {
		t.Fatalf("ожидалось подчёркивание, получено %+v", spans)
	}
}

// TestParseMarkdownV2_Link проверяет разбор ссылки с текстом.
func TestParseMarkdownV2_Link(t *testing.T) {
	spans, err := parseMarkdownV2("[сайт](https://example.com)")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(spans) != 1 || spans[0].Kind != mdTextURL || spans[0].URL != "https://example.com" || spans[0].Text != "сайт" {
		t.Fatalf("ожидалась ссылка, получено %+v", spans)
	}
}

// TestParseMarkdownV2_Pre проверяет, что ``` имеет приоритет над `.
func TestParseMarkdownV2_Pre(t *testing.T) {
	spans, err := parseMarkdownV2("```code block``` и `x`")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	want := []mdSpan{
		{Kind: mdPre, Text: "code block"},
		{Kind: mdPlain, Text: " и "},
		{Kind: mdCode, Text: "x"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("ожидалось %+v, получено %+v", want, spans)
	}
}

// TestParseMarkdownV2_Escape проверяет экранирование спецсимволов.
func TestParseMarkdownV2_Escape(t *testing.T) {
	spans, err := parseMarkdownV2(`2\*2 и *жирный \* внутри*`)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	want := []mdSpan{
		{Kind: mdPlain, Text: "2*2 и "},
		{Kind: mdBold, Text: "жирный * внутри"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("ожидалось %+v, получено %+v", want, spans)
	}
}

// TestParseMarkdownV2_Unclosed проверяет, что незакрытый маркер — ошибка.
func TestParseMarkdownV2_Unclosed(t *testing.T) {
	if _, err := parseMarkdownV2("*без конца"); err == nil {
		t.Fatalf("ожидалась ошибка, но её нет")
	}
}
