package rag

import (
	"strings"
)

const (
	// NoDocumentsAnswer ответ, когда поиск ничего не нашёл.
	// Этот же текст модель должна вернуть, если контекст не относится к вопросу.
	NoDocumentsAnswer = "Desculpe, não consegui encontrar informações relevantes nos documentos fornecidos."

	// NoAnswerPlaceholder подставляется вместо пустого ответа модели
	NoAnswerPlaceholder = "Sem resposta."

	// UnknownSource для чанка без метаданных source
	UnknownSource = "Desconhecida"

	contextSeparator = "\n\n"
)

// BuildContext склеивает тексты чанков по рангу через пустую строку
func BuildContext(texts []string) string {
	return strings.Join(texts, contextSeparator)
}

// BuildPrompt собирает промпт юридического ассистента
func BuildPrompt(question, context string) string {
	var buf strings.Builder

	buf.WriteString("Você é um assistente jurídico especializado em consulta de documentos legais.\n")
	buf.WriteString("Baseie suas respostas estritamente nos documentos fornecidos no contexto abaixo.\n")
	buf.WriteString("Se não encontrar documentos relevantes, responda somente com \"")
	buf.WriteString(NoDocumentsAnswer)
	buf.WriteString("\" e não mostre mais nada.\n\n")

	buf.WriteString("Pergunta: ")
	buf.WriteString(question)
	buf.WriteString("\n\n")

	buf.WriteString("Contexto:\n")
	buf.WriteString(context)
	buf.WriteString("\n")

	return buf.String()
}

// Excerpt первые n символов text и "..."
func Excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}
