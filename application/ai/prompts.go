package ai

import "fmt"

// Operation names, also used in error messages and metrics labels.
const (
	OpSummarize = "summarize"
	OpRewrite   = "rewrite"
	OpTranslate = "translate"
)

// RewriteMode selects the style of a rewrite.
type RewriteMode string

const (
	ModeShorter RewriteMode = "shorter"
	ModeClearer RewriteMode = "clearer"
	ModeFormal  RewriteMode = "formal"
	ModeCasual  RewriteMode = "casual"
)

// TargetLanguage is the requested translation direction.
type TargetLanguage string

const (
	TargetEnglish TargetLanguage = "en"
	TargetArabic  TargetLanguage = "ar"
)

const (
	summarizeMaxTokens = 500
	rewriteMaxTokens   = 1000
	translateMaxTokens = 2000
)

var rewriteInstructions = map[RewriteMode]string{
	ModeShorter: "Make it more concise and brief while keeping all the main points.",
	ModeClearer: "Make it clearer and easier to understand, improving readability.",
	ModeFormal:  "Rewrite it in a formal, professional tone.",
	ModeCasual:  "Rewrite it in a casual, conversational tone.",
}

// Valid reports whether m is a known rewrite mode.
func (m RewriteMode) Valid() bool {
	_, ok := rewriteInstructions[m]
	return ok
}

// Valid reports whether t is a supported target language.
func (t TargetLanguage) Valid() bool {
	return t == TargetEnglish || t == TargetArabic
}

func (t TargetLanguage) orAuto() string {
	if t == "" {
		return "auto"
	}
	return string(t)
}

const summarizeSystemPrompt = "You are a helpful assistant that summarizes text concisely. " +
	"Always respond in the same language as the input text."

const translateSystemPrompt = "You are a professional translator. Detect the language of the input text. " +
	"If it's in English, translate it to Arabic. If it's in Arabic, translate it to English. " +
	"Maintain the original meaning, tone, and style. Only provide the translation, no explanations."

func summarizeUserPrompt(text string) string {
	return "Please summarize the following text:\n\n" + text
}

func rewriteSystemPrompt(mode RewriteMode) string {
	return fmt.Sprintf("You are a helpful assistant that rewrites text. %s Always respond in the same language as the input text.",
		rewriteInstructions[mode])
}

func rewriteUserPrompt(text string) string {
	return "Please rewrite the following text:\n\n" + text
}
