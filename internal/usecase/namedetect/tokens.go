package namedetect

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token слово из текста ответа. Start и End это индексы рун, End не включается.
type Token struct {
	Word          string `json:"word"`
	IsComplete    bool   `json:"is_complete"`
	IsCapitalized bool   `json:"is_capitalized"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
}

const minNameLength = 2

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || r == '\'' || r == '-'
}

func isDelimiter(r rune) bool {
	switch r {
	case ',', ';', '.', '!', '?':
		return true
	}
	return unicode.IsSpace(r)
}

// ExtractTokens разбивает текст на слова из букв, апострофов и дефисов.
// Слово завершено, только если сразу за ним идёт разделитель: слово под курсором
// в конце текста всегда незавершённое.
func ExtractTokens(text string) []Token {
	runes := []rune(text)
	var tokens []Token
	for i := 0; i < len(runes); {
		if !isNameRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isNameRune(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		tokens = append(tokens, Token{
			Word:          word,
			IsComplete:    i < len(runes) && isDelimiter(runes[i]),
			IsCapitalized: HasUppercaseFirstLetter(word),
			Start:         start,
			End:           i,
		})
	}
	return tokens
}

// CleanWord оставляет в слове только буквы, апострофы и дефисы.
func CleanWord(word string) string {
	return strings.Map(func(r rune) rune {
		if isNameRune(r) {
			return r
		}
		return -1
	}, word)
}

// IsCapitalized проверяет, что первая буква заглавная и у неё вообще есть регистр.
func IsCapitalized(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || r == utf8.RuneError {
		return false
	}
	return unicode.ToUpper(r) == r && unicode.ToLower(r) != r
}

// HasUppercaseFirstLetter проверяет очищенное слово длиной от двух символов.
func HasUppercaseFirstLetter(word string) bool {
	cleaned := CleanWord(word)
	if utf8.RuneCountInString(cleaned) < minNameLength {
		return false
	}
	return IsCapitalized(cleaned)
}

// containsWord ищет слово среди токенов текста без учёта регистра.
func containsWord(text, normalized string) bool {
	words := strings.FieldsFunc(text, isDelimiter)
	for _, w := range words {
		if strings.ToLower(CleanWord(w)) == normalized {
			return true
		}
	}
	return false
}
