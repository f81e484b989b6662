package namedetect

import (
	"context"
	"strings"
	"unicode/utf8"
)

// State состояние детектора.
type State int

const (
	// StateIdle нет открытого вопроса о кандидате.
	StateIdle State = iota
	// StatePending пользователь ещё не ответил про кандидата.
	StatePending
)

// String возвращает имя состояния.
func (s State) String() string {
	if s == StatePending {
		return "pending_confirmation"
	}
	return "idle"
}

// MarshalText позволяет сериализовать состояние строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Candidate слово, которое может быть именем.
type Candidate struct {
	Word          string     `json:"word"`
	Normalized    string     `json:"normalized"`
	Confidence    Confidence `json:"confidence"`
	FromSelection bool       `json:"from_selection"`
}

var stopwords = toSet(
	"the", "this", "that", "what", "when", "where", "why", "how",
	"today", "tomorrow", "yesterday",
	"my", "i", "me", "he", "she", "they", "we", "you", "it",
	"his", "her", "their", "our", "its",
	"a", "an", "and", "or", "but", "not", "no", "yes",
	"can", "could", "would", "should", "will", "may", "might", "must", "shall",
)

// IsStopword проверяет слово по списку служебных слов детектора.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// IsPersonName эвристика для произвольного слова: стоп-слова отсекаются,
// подтверждённые пользователем имена проходят, остальные сверяются со справочником.
func IsPersonName(ctx context.Context, names *NameCache, word string) bool {
	if names == nil || IsStopword(CleanWord(word)) {
		return false
	}
	return names.Resolve(ctx, CleanWord(word)) != ConfidenceUnknown
}

// Update результат обработки изменения текста.
type Update struct {
	Dismissed *Candidate `json:"dismissed,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

// Detector конечный автомат Idle/PendingConfirmation для одной сессии записи.
type Detector struct {
	names   *NameCache
	seen    map[string]struct{}
	pending *Candidate
	people  []string
}

// NewDetector создаёт детектор. names может быть nil.
func NewDetector(names *NameCache) *Detector {
	return &Detector{
		names: names,
		seen:  make(map[string]struct{}),
	}
}

// State возвращает текущее состояние.
func (d *Detector) State() State {
	if d.pending != nil {
		return StatePending
	}
	return StateIdle
}

// Pending возвращает ожидающего подтверждения кандидата.
func (d *Detector) Pending() (Candidate, bool) {
	if d.pending == nil {
		return Candidate{}, false
	}
	return *d.pending, true
}

// MentionedPeople возвращает подтверждённые в сессии имена.
func (d *Detector) MentionedPeople() []string {
	out := make([]string, len(d.people))
	copy(out, d.people)
	return out
}

// Detect ищет первое завершённое слово с заглавной буквы, которое ещё не
// предлагалось в этой сессии. Пока открыт вопрос, новые кандидаты не появляются.
func (d *Detector) Detect(text string) (Candidate, bool) {
	if d.pending != nil {
		return Candidate{}, false
	}
	for _, tok := range ExtractTokens(text) {
		if !tok.IsComplete || !tok.IsCapitalized {
			continue
		}
		cleaned := CleanWord(tok.Word)
		if utf8.RuneCountInString(cleaned) < minNameLength {
			continue
		}
		normalized := strings.ToLower(cleaned)
		if _, ok := d.seen[normalized]; ok {
			continue
		}
		if IsStopword(normalized) {
			continue
		}
		return d.open(cleaned, normalized, false), true
	}
	return Candidate{}, false
}

// DetectFromSelection расширяет выделение [start, end) до целого слова.
// Регистр и стоп-слова не проверяются: пользователь выбрал слово сам.
func (d *Detector) DetectFromSelection(text string, start, end int) (Candidate, bool) {
	if d.pending != nil {
		return Candidate{}, false
	}
	runes := []rune(text)
	if start > end {
		start, end = end, start
	}
	start = clamp(start, 0, len(runes))
	end = clamp(end, 0, len(runes))
	if start == end {
		return Candidate{}, false
	}
	for start > 0 && isNameRune(runes[start-1]) {
		start--
	}
	for end < len(runes) && isNameRune(runes[end]) {
		end++
	}
	cleaned := CleanWord(strings.TrimSpace(string(runes[start:end])))
	if utf8.RuneCountInString(cleaned) < minNameLength {
		return Candidate{}, false
	}
	normalized := strings.ToLower(cleaned)
	if _, ok := d.seen[normalized]; ok {
		return Candidate{}, false
	}
	return d.open(cleaned, normalized, true), true
}

// HandleTextChange закрывает вопрос, если слова кандидата больше нет в тексте,
// и повторяет поиск.
func (d *Detector) HandleTextChange(text string) Update {
	var upd Update
	if d.pending != nil && !containsWord(text, d.pending.Normalized) {
		dismissed := *d.pending
		d.pending = nil
		upd.Dismissed = &dismissed
	}
	if c, ok := d.Detect(text); ok {
		upd.Candidate = &c
	}
	return upd
}

// Confirm закрывает вопрос. При isPerson имя попадает в список людей записи
// и в кэш подтверждённых имён. Без открытого вопроса возвращает false.
func (d *Detector) Confirm(ctx context.Context, isPerson bool) (Candidate, bool) {
	if d.pending == nil {
		return Candidate{}, false
	}
	c := *d.pending
	d.pending = nil
	if isPerson {
		if d.AddPerson(c.Word) && d.names != nil {
			d.names.Confirm(ctx, c.Word)
		}
	}
	return c, true
}

// AddPerson добавляет имя без учёта регистра. Возвращает false для дубля.
func (d *Detector) AddPerson(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, p := range d.people {
		if strings.EqualFold(p, name) {
			return false
		}
	}
	d.people = append(d.people, name)
	d.seen[strings.ToLower(name)] = struct{}{}
	return true
}

func (d *Detector) open(word, normalized string, fromSelection bool) Candidate {
	d.seen[normalized] = struct{}{}
	c := Candidate{Word: word, Normalized: normalized, FromSelection: fromSelection}
	if d.names != nil {
		c.Confidence = d.names.Classify(word)
	}
	d.pending = &c
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
