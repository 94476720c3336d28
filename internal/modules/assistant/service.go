// Package assistant answers free-form questions with recent headlines as
// context, keeping the tone educational rather than directive.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/modules/news"
)

// ErrNotConfigured is returned when no Gemini API key is set.
var ErrNotConfigured = fmt.Errorf("assistant is not configured; set GEMINI_API_KEY")

const (
	model          = "gemini-2.0-flash"
	maxTickers     = 5
	headlinesEach  = 3
	maxQuestionLen = 2000
)

const systemPrompt = `You are an educational investing coach. Explain concepts,
lay out scenarios with their risks, and suggest what to monitor. Never tell
the user to buy, sell or hold anything; never give personalized financial
advice. Keep answers under 300 words.`

// Answer is the assistant's response.
type Answer struct {
	Text    string      `json:"text"`
	Sources []news.Item `json:"sources"`
	Tickers []string    `json:"tickers"`
	Guarded bool        `json:"guarded"`
}

// Service answers questions via Gemini.
type Service struct {
	cfg  *config.Config
	news *news.Service
	log  zerolog.Logger

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewService creates an assistant service. The Gemini client is created on
// first use so startup does not depend on the API being reachable.
func NewService(cfg *config.Config, newsSvc *news.Service, log zerolog.Logger) *Service {
	return &Service{
		cfg:  cfg,
		news: newsSvc,
		log:  log.With().Str("service", "assistant").Logger(),
	}
}

// Configured reports whether an API key is present.
func (s *Service) Configured() bool {
	return s.cfg.GeminiAPIKey != ""
}

// Ask answers one question. Tickers mentioned in the question get recent
// headlines attached to the prompt as context.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if len(question) > maxQuestionLen {
		return nil, fmt.Errorf("question too long")
	}

	client, err := s.geminiClient(ctx)
	if err != nil {
		return nil, err
	}

	tickers := ExtractTickers(question)

	var sources []news.Item
	if len(tickers) > 0 {
		items, err := s.news.Fetch(ctx, tickers, headlinesEach, news.ProviderAuto)
		if err != nil {
			s.log.Warn().Err(err).Msg("Headline fetch for assistant context failed")
		} else {
			sources = items
		}
	}

	prompt := buildPrompt(question, sources)

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty answer from model")
	}

	text, guarded := StripAdvice(text)

	return &Answer{
		Text:    text,
		Sources: sources,
		Tickers: tickers,
		Guarded: guarded,
	}, nil
}

func (s *Service) geminiClient(ctx context.Context) (*genai.Client, error) {
	s.once.Do(func() {
		s.client, s.initErr = genai.NewClient(ctx, &genai.ClientConfig{APIKey: s.cfg.GeminiAPIKey})
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", s.initErr)
	}
	return s.client, nil
}

func buildPrompt(question string, sources []news.Item) string {
	var b strings.Builder
	if len(sources) > 0 {
		b.WriteString("Recent headlines for context:\n")
		for _, item := range sources {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", item.Ticker, item.Title, item.Publisher)
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}(?:\.[A-Z]{1,2})?\b`)

// stopwords are uppercase words that look like tickers but aren't.
var stopwords = map[string]bool{
	"A": true, "I": true, "AN": true, "THE": true, "AND": true, "OR": true,
	"IS": true, "IT": true, "IN": true, "ON": true, "OF": true, "AT": true,
	"TO": true, "FOR": true, "BE": true, "DO": true, "IF": true, "MY": true,
	"BUY": true, "SELL": true, "HOLD": true, "STOCK": true, "NEWS": true,
	"ETF": true, "USD": true, "EUR": true, "CEO": true, "AI": true,
	"WHAT": true, "WHY": true, "HOW": true, "WHEN": true, "WILL": true,
	"CAN": true, "NOW": true, "NOT": true, "VS": true, "ABOUT": true,
	"SHOULD": true, "COULD": true, "WOULD": true, "DIP": true, "WITH": true,
	"P": true, "E": true, "PE": true, "Q": true, "US": true, "UP": true,
	"DOWN": true, "GOOD": true, "BAD": true, "RISK": true,
}

// ExtractTickers pulls up to five ticker-looking symbols from a question,
// filtering common uppercase English words.
func ExtractTickers(question string) []string {
	matches := tickerPattern.FindAllString(question, -1)

	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		if stopwords[m] || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == maxTickers {
			break
		}
	}
	return out
}

var advicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you should (buy|sell|hold)[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)i (recommend|advise) (buying|selling|holding)[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)(buy|sell) (it|this stock|now|immediately)[^.!?]*[.!?]?`),
}

// StripAdvice removes directive advice phrases the model may emit despite
// the system prompt. Returns the cleaned text and whether anything was cut.
func StripAdvice(text string) (string, bool) {
	guarded := false
	for _, p := range advicePatterns {
		if p.MatchString(text) {
			text = p.ReplaceAllString(text, "")
			guarded = true
		}
	}
	if guarded {
		text = strings.TrimSpace(regexp.MustCompile(`\n{3,}`).ReplaceAllString(text, "\n\n"))
		text = regexp.MustCompile(`[ \t]{2,}`).ReplaceAllString(text, " ")
	}
	return text, guarded
}
