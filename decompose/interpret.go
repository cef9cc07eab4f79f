package decompose

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Intent represents the detected intent of a user question.
type Intent string

const (
	IntentDefinition  Intent = "definition"
	IntentExplanation Intent = "explanation"
	IntentReason      Intent = "reason"
	IntentComparison  Intent = "comparison"
	IntentInformation Intent = "information"
)

// Interpretation is the structured reading of a raw question used by the
// decomposer and the retrieval coordinator.
type Interpretation struct {
	Text       string   `json:"text"`
	Entities   []string `json:"entities"`
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Complex    bool     `json:"complex"`
	Tokens     int      `json:"tokens"`
}

// defaultVocabulary is the medical term list used for entity extraction when
// the caller does not supply one.
var defaultVocabulary = []string{
	"diabetes", "type 1 diabetes", "type 2 diabetes",
	"hypertension", "blood pressure", "asthma", "migraine",
	"influenza", "flu", "pneumonia", "bronchitis", "anemia",
	"arthritis", "osteoporosis", "insulin", "metformin",
	"cholesterol", "obesity", "depression", "anxiety",
	"allergy", "eczema", "psoriasis", "thyroid", "stroke",
	"heart disease", "kidney disease", "fatigue",
	"frequent urination", "increased thirst", "fever", "cough",
}

var nonWord = regexp.MustCompile(`[^\w]`)

// Interpreter extracts entities, intent and a complexity assessment from a
// raw question. It is stateless apart from the lazily initialized token
// encoder and safe for concurrent use.
type Interpreter struct {
	vocabulary []string
	logger     *zap.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewInterpreter creates an interpreter. A nil or empty vocabulary selects
// the built-in medical term list.
func NewInterpreter(vocabulary []string, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(vocabulary) == 0 {
		vocabulary = defaultVocabulary
	}
	return &Interpreter{
		vocabulary: vocabulary,
		logger:     logger.With(zap.String("component", "interpreter")),
	}
}

// Interpret produces the structured reading of a question.
func (in *Interpreter) Interpret(text string) Interpretation {
	entities := in.extractEntities(text)
	intent, confidence := detectIntent(text)
	tokens := in.countTokens(text)

	return Interpretation{
		Text:       text,
		Entities:   entities,
		Intent:     intent,
		Confidence: confidence,
		Complex:    assessComplexity(text, entities, tokens),
		Tokens:     tokens,
	}
}

// extractEntities matches vocabulary terms first, longest term first so
// "type 2 diabetes" wins over "diabetes", then picks up capitalized words
// not at sentence start.
func (in *Interpreter) extractEntities(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, 4)
	seen := make(map[string]bool)
	claimed := make([]bool, len(lower))

	terms := make([]string, len(in.vocabulary))
	copy(terms, in.vocabulary)
	sortByLengthDesc(terms)

	for _, term := range terms {
		idx := strings.Index(lower, strings.ToLower(term))
		if idx < 0 || seen[term] {
			continue
		}
		if overlaps(claimed, idx, idx+len(term)) {
			continue
		}
		markClaimed(claimed, idx, idx+len(term))
		seen[term] = true
		found = append(found, term)
	}

	for i, word := range strings.Fields(text) {
		if i == 0 || len(word) < 2 {
			continue
		}
		if word[0] < 'A' || word[0] > 'Z' {
			continue
		}
		clean := strings.ToLower(nonWord.ReplaceAllString(word, ""))
		if clean == "" || seen[clean] {
			continue
		}
		if overlapsAnyTerm(found, clean) {
			continue
		}
		seen[clean] = true
		found = append(found, clean)
	}

	return found
}

func (in *Interpreter) countTokens(text string) int {
	in.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			in.logger.Warn("tiktoken init failed, using character estimate", zap.Error(err))
			return
		}
		in.enc = enc
	})
	if in.enc == nil {
		return len(text) / 4
	}
	return len(in.enc.Encode(text, nil, nil))
}

// detectIntent applies the rule patterns in declaration order so ties are
// deterministic.
func detectIntent(text string) (Intent, float64) {
	lower := strings.ToLower(text)

	patterns := []struct {
		intent     Intent
		confidence float64
		keywords   []string
	}{
		{IntentComparison, 0.8, []string{"compare", "difference between", "versus", " vs "}},
		{IntentDefinition, 0.8, []string{"what is", "what are", "define", "definition"}},
		{IntentExplanation, 0.8, []string{"how does", "how do", "how to", "explain"}},
		{IntentReason, 0.7, []string{"why", "what causes", "cause of"}},
	}

	for _, p := range patterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.intent, p.confidence
			}
		}
	}
	return IntentInformation, 0.5
}

// assessComplexity flags questions worth decomposing: long ones, ones
// naming several conditions, or ones chaining parts with conjunctions.
func assessComplexity(text string, entities []string, tokens int) bool {
	words := strings.Fields(text)
	if len(words) > 15 || tokens > 24 {
		return true
	}
	if len(entities) > 2 {
		return true
	}

	lower := strings.ToLower(text)
	for _, conj := range []string{" and ", " as well as ", " also ", " both "} {
		if strings.Contains(lower, conj) {
			return true
		}
	}
	return false
}

func sortByLengthDesc(terms []string) {
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i]) > len(terms[j])
	})
}

func overlaps(claimed []bool, from, to int) bool {
	for i := from; i < to && i < len(claimed); i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func markClaimed(claimed []bool, from, to int) {
	for i := from; i < to && i < len(claimed); i++ {
		claimed[i] = true
	}
}

func overlapsAnyTerm(terms []string, word string) bool {
	for _, t := range terms {
		if strings.Contains(t, word) {
			return true
		}
	}
	return false
}
