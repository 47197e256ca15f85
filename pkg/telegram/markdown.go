package telegram

import (
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
)

// Виды отрезков разметки MarkdownV2.
type mdKind int

const (
	mdPlain mdKind = iota
	mdBold
	mdItalic
	mdUnderline
	mdStrike
	mdSpoiler
	mdCode
	mdPre
	mdTextURL
)

// mdSpan — один отрезок текста с единым стилем.
type mdSpan struct {
	Kind mdKind
	Text string
	URL  string // только для mdTextURL
}

// mdMarkers перечисляет маркеры в порядке проверки:
// более длинные раньше, чтобы __ не распался на два _.
var mdMarkers = []struct {
	token string
	kind  mdKind
}{
	{"```", mdPre},
	{"__", mdUnderline},
	{"||", mdSpoiler},
	{"*", mdBold},
	{"_", mdItalic},
	{"~", mdStrike},
	{"`", mdCode},
}

// parseMarkdownV2 разбирает подмножество разметки MarkdownV2 на отрезки.
// Вложенные стили не поддерживаются; незакрытый маркер — ошибка,
// как и у самой платформы.
func parseMarkdownV2(s string) ([]mdSpan, error) {
	var spans []mdSpan
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, mdSpan{Kind: mdPlain, Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(s) {
		// Экранирование: следующий символ всегда литеральный.
		if s[i] == '\\' && i+1 < len(s) {
			plain.WriteByte(s[i+1])
			i += 2
			continue
		}

		// Ссылка вида [текст](url).
		if s[i] == '[' {
			closing := findUnescaped(s[i:], "](")
			if closing >= 0 {
				label := s[i+1 : i+closing]
				urlStart := i + closing + 2
				urlEnd := strings.IndexByte(s[urlStart:], ')')
				if urlEnd < 0 {
					return nil, fmt.Errorf("незакрытая ссылка")
				}
				flush()
				spans = append(spans, mdSpan{Kind: mdTextURL, Text: mdUnescape(label), URL: s[urlStart : urlStart+urlEnd]})
				i = urlStart + urlEnd + 1
				continue
			}
		}

		matched := false
		for _, m := range mdMarkers {
			if !strings.HasPrefix(s[i:], m.token) {
				continue
			}
			start := i + len(m.token)
			end := findUnescaped(s[start:], m.token)
			if end < 0 {
				return nil, fmt.Errorf("незакрытый маркер %q", m.token)
			}
			flush()
			spans = append(spans, mdSpan{Kind: m.kind, Text: mdUnescape(s[start : start+end])})
			i = start + end + len(m.token)
			matched = true
			break
		}
		if matched {
			continue
		}

		plain.WriteByte(s[i])
		i++
	}

	flush()
	return spans, nil
}

// findUnescaped ищет первое вхождение token, не прикрытое обратным слешем.
func findUnescaped(s, token string) int {
	for i := 0; i+len(token) <= len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], token) {
			return i
		}
	}
	return -1
}

// mdUnescape убирает обратные слеши перед экранированными символами.
func mdUnescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// markdownV2Options преобразует текст MarkdownV2 в стилизованные фрагменты gotd.
func markdownV2Options(s string) ([]message.StyledTextOption, error) {
	spans, err := parseMarkdownV2(s)
	if err != nil {
		return nil, err
	}

	opts := make([]message.StyledTextOption, 0, len(spans))
	for _, sp := range spans {
		switch sp.Kind {
		case mdBold:
			opts = append(opts, styling.Bold(sp.Text))
		case mdItalic:
			opts = append(opts, styling.Italic(sp.Text))
		case mdUnderline:
			opts = append(opts, styling.Underline(sp.Text))
		case mdStrike:
			opts = append(opts, styling.Strike(sp.Text))
		case mdSpoiler:
			opts = append(opts, styling.Spoiler(sp.Text))
		case mdCode:
			opts = append(opts, styling.Code(sp.Text))
		case mdPre:
			opts = append(opts, styling.Pre(sp.Text, ""))
		case mdTextURL:
			opts = append(opts, styling.TextURL(sp.Text, sp.URL))
		default:
			opts = append(opts, styling.Plain(sp.Text))
		}
	}
	if len(opts) == 0 {
		opts = append(opts, styling.Plain(""))
	}
	return opts, nil
}
