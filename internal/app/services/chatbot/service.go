// Package chatbot answers career questions through an OpenRouter hosted
// model primed with the currently open jobs.
package chatbot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/jobhunter/internal/app/domain/chat"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/config"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

const (
	FallbackAnswer = "Sorry, I did not understand your question."
	FailureAnswer  = "Sorry, something went wrong. Please try again later."
	noJobs         = "There are no active job postings at the moment."
	title          = "JobHunter Chatbot"

	temperature = 0.7
	maxTokens   = 1000
)

const systemPrompt = `You are a career advisor specialised in information technology jobs. ` +
	`Answer questions about jobs, careers, skills and career direction. ` +
	`Keep answers short, concise and useful.

These are the job postings currently open:
%s

When the user asks about jobs, base your advice on the postings above. ` +
	`If none of them fits, give general advice about skills and career direction.`

// Answer is the reply to one question.
type Answer struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Service talks to the chat completion API and records the conversation.
type Service struct {
	client  *httputil.Client
	cfg     config.OpenRouterConfig
	jobs    storage.JobStore
	history storage.ChatStore
	log     *logger.Logger
	now     func() time.Time
}

// New constructs the chatbot. A nil client builds one from cfg.
func New(cfg config.OpenRouterConfig, client *httputil.Client, jobs storage.JobStore, history storage.ChatStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chatbot")
	}
	if client == nil {
		client = httputil.NewClient(httputil.ClientConfig{Timeout: cfg.Timeout})
	}
	return &Service{client: client, cfg: cfg, jobs: jobs, history: history, log: log, now: time.Now}
}

// Ask answers message for the user identified by email. Upstream failures
// produce FailureAnswer rather than an error.
func (s *Service) Ask(ctx context.Context, email, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, errors.BadRequest("message is required")
	}
	start := time.Now()
	answer, err := s.complete(ctx, question)
	if err != nil {
		metrics.RecordChatbotRequest("error", time.Since(start))
		s.log.WithContext(ctx).WithError(err).Warn("chat completion failed")
		return Answer{Response: FailureAnswer, Timestamp: s.now()}, nil
	}
	metrics.RecordChatbotRequest("ok", time.Since(start))

	if _, err := s.history.CreateChatHistory(ctx, chat.History{
		UserID:    email,
		Question:  question,
		Answer:    answer,
		Timestamp: s.now().UTC(),
	}); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("chat history not saved")
	}
	return Answer{Response: answer, Timestamp: s.now()}, nil
}

func (s *Service) complete(ctx context.Context, question string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("openrouter api key is not configured")
	}
	listing, err := s.activeJobs(ctx)
	if err != nil {
		return "", err
	}
	req := completionRequest{
		Model: s.cfg.Model,
		Messages: []message{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, listing)},
			{Role: "user", Content: question},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + s.cfg.APIKey,
		"HTTP-Referer":  s.cfg.Referer,
		"X-Title":       title,
	}
	resp, err := s.client.Do(ctx, http.MethodPost, s.cfg.APIURL, req, headers)
	if err != nil {
		return "", err
	}
	var body []byte
	if err := httputil.DecodeResponse(resp, &body); err != nil {
		return "", err
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return FallbackAnswer, nil
	}
	return content.String(), nil
}

func (s *Service) activeJobs(ctx context.Context) (string, error) {
	jobs, err := s.jobs.ListActiveJobs(ctx)
	if err != nil {
		return "", err
	}
	if len(jobs) == 0 {
		return noJobs, nil
	}
	var b strings.Builder
	for i, j := range jobs {
		if i > 0 {
			b.WriteByte('\n')
		}
		describe(&b, j)
	}
	return b.String(), nil
}

func describe(b *strings.Builder, j job.Job) {
	skills := make([]string, 0, len(j.Skills))
	for _, sk := range j.Skills {
		skills = append(skills, sk.Name)
	}
	fmt.Fprintf(b, "Position: %s\nCompany: %s\nLocation: %s\nSalary: %s\nSkills: %s\n-------------------",
		j.Name, j.CompanyName(), j.Location, job.FormatSalary(j.Salary), strings.Join(skills, ", "))
}

// History returns the conversation of email, newest first.
func (s *Service) History(ctx context.Context, email string) ([]chat.History, error) {
	items, err := s.history.ListChatHistory(ctx, email)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []chat.History{}
	}
	return items, nil
}
