package textgen

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"gratitude-journal/internal/domain"
)

// ErrStubJSON возвращается заглушкой на запросы структурированного ответа.
var ErrStubJSON = errors.New("textgen: заглушка не генерирует JSON")

var stubQuestions = []string{
	"What conversation today left you feeling lighter?",
	"Which ordinary object made your day a little easier?",
	"Who offered you kindness you did not expect?",
	"What did you notice outside that you are glad you saw?",
	"What effort of your own are you quietly proud of today?",
	"Which meal or drink today are you thankful for, and why?",
	"What is one thing your body let you do today?",
}

// Stub генерирует вопросы без обращения к внешним сервисам.
type Stub struct{}

var _ domain.TextGenerator = Stub{}

// NewStub создаёт заглушку.
func NewStub() Stub {
	return Stub{}
}

// Generate возвращает три пронумерованных вопроса, выбранных по хешу промпта.
func (Stub) Generate(_ context.Context, req domain.TextRequest) (string, error) {
	if req.JSON {
		return "", ErrStubJSON
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Prompt))
	offset := int(h.Sum32() % uint32(len(stubQuestions)))
	var b strings.Builder
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i+1, stubQuestions[(offset+i)%len(stubQuestions)])
	}
	return b.String(), nil
}
