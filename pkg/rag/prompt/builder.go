package prompt

import (
	"strings"

	"yt-chatbot-be/pkg/llm"
)

// DefaultSystemInstruction asks for answers in Urdu written in Latin
// script, unless the user writes in English.
const DefaultSystemInstruction = "You are a YT chatbot assistant. Use the provided context to answer accurately. " +
	"CRITICAL INSTRUCTIONS:\n" +
	"1. ALWAYS respond in Urdu only but write it in ENGLISH letters. If the user gives English instructions then respond in English, otherwise for all languages respond in Urdu written in ENGLISH letters\n" +
	"2. Keep your response SHORT and CONCISE (maximum 10-12 sentences)\n" +
	"3. Do NOT repeat the same information multiple times\n" +
	"4. Focus on the main points only\n" +
	"5. Do NOT generate repetitive content\n" +
	"6. Even if the context is in Hindi/Urdu, respond in English letters\n" +
	"7. Translate any Hindi/Urdu content to English in your response"

// NoContextMarker stands in for the context when retrieval found nothing.
const NoContextMarker = "No relevant context found in the video transcript."

// Builder renders the system turn and the context/question human turn.
type Builder struct {
	systemInstruction string
}

func NewBuilder(systemInstruction string) *Builder {
	if strings.TrimSpace(systemInstruction) == "" {
		systemInstruction = DefaultSystemInstruction
	}
	return &Builder{systemInstruction: systemInstruction}
}

func (b *Builder) SystemInstruction() string {
	return b.systemInstruction
}

func (b *Builder) Build(context, query string) []llm.Message {
	var human strings.Builder
	human.WriteString("Context:\n")
	human.WriteString(context)
	human.WriteString("\n\nQuestion:\n")
	human.WriteString(query)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.systemInstruction},
		{Role: llm.RoleUser, Content: human.String()},
	}
}

// AssembleContext joins chunk texts with blank lines. No texts yields the
// no-context marker.
func AssembleContext(texts []string) string {
	if len(texts) == 0 {
		return NoContextMarker
	}
	return strings.Join(texts, "\n\n")
}
