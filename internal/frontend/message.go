package frontend

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MessageLimit максимальная длина одного сообщения чат-бота
const MessageLimit = 4000

const (
	Greeting              = "Olá! 🤖 Sou um AdvogaBot Jurídico. Pergunte algo sobre seu documento."
	APIFailureMessage     = "⚠️ Não foi possível obter uma resposta da API."
	RequestFailureMessage = "⚠️ Ocorreu um erro ao consultar a resposta."
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// SplitMessage режет text на части не длиннее limit рун,
// по возможности по переводу строки
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MessageLimit
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		if part := strings.TrimRight(string(runes[:cut]), "\n"); part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
	}
	if rest := string(runes); strings.TrimSpace(rest) != "" || len(parts) == 0 {
		parts = append(parts, rest)
	}
	return parts
}

// RenderHTML рендерит markdown ответа в HTML
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// FormatAnswer возвращает текст ответа как есть или, если html, отрендеренным через goldmark
func FormatAnswer(text string, html bool) (string, error) {
	if !html {
		return text, nil
	}
	return RenderHTML(text)
}

// FormatSources список источников, по одному в строке
func FormatSources(r Response) string {
	if len(r.Sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("📚 Fontes:\n")
	for i, s := range r.Sources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Source)
	}
	return b.String()
}
