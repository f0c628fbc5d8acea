package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

var tracer = otel.Tracer("github.com/justicehub/platform/internal/service")

const searchPrompt = `You are a legal search assistant. Your task is to analyze the user's query about legal help and determine:
1. What practice areas might be relevant (e.g., Family Law, Criminal Law, etc.)
2. What specific legal issues they might be facing (e.g., divorce, property dispute)
3. What expertise areas would be most helpful
4. Any location preferences mentioned
5. Any experience level preferences mentioned

Output only a JSON object with these fields:
{
  "practiceAreas": ["area1", "area2"],
  "legalIssues": ["issue1", "issue2"],
  "expertiseNeeded": ["expertise1", "expertise2"],
  "location": "location or null if not specified",
  "experienceLevel": "minimum years or null if not specified",
  "originalQuery": "the original query"
}

Query: """%s"""`

// LawyerLister loads the search corpus.
type LawyerLister interface {
	ListLawyers(ctx context.Context) ([]model.LawyerProfile, error)
}

// SearchCriteria is the structured extraction the model returns.
type SearchCriteria struct {
	PracticeAreas   []string   `json:"practiceAreas"`
	LegalIssues     []string   `json:"legalIssues"`
	ExpertiseNeeded []string   `json:"expertiseNeeded"`
	Location        looseValue `json:"location"`
	ExperienceLevel looseValue `json:"experienceLevel"`
	OriginalQuery   string     `json:"originalQuery"`
}

// looseValue accepts null, a string or a number. The string "null" counts
// as absent.
type looseValue string

func (v *looseValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), "null") {
			s = ""
		}
		*v = looseValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = looseValue(n.String())
	return nil
}

// minYears reads a leading integer, so "5", "5 years" and "5.5" give 5.
func (v looseValue) minYears() (int, bool) {
	s := strings.TrimSpace(string(v))
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SearchService finds lawyers matching a free-text description of a legal
// problem.
type SearchService struct {
	lawyers   LawyerLister
	llmClient llm.Client
	model     string
	logger    *logger.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(lawyers LawyerLister, llmClient llm.Client, model string, log *logger.Logger) *SearchService {
	return &SearchService{
		lawyers:   lawyers,
		llmClient: llmClient,
		model:     model,
		logger:    log.Component("search"),
	}
}

// Search returns the lawyers relevant to query, highest rated first. An
// empty query returns every lawyer.
func (s *SearchService) Search(ctx context.Context, query string) ([]model.LawyerProfile, error) {
	ctx, span := tracer.Start(ctx, "lawyers.search")
	defer span.End()

	corpus, err := s.lawyers.ListLawyers(ctx)
	if err != nil {
		return nil, storeErr(err, "lawyers")
	}
	span.SetAttributes(attribute.Int("search.corpus", len(corpus)))

	if strings.TrimSpace(query) == "" {
		metrics.LawyerSearchTotal.WithLabelValues("all").Inc()
		return byRating(corpus), nil
	}

	criteria, err := s.extract(ctx, query)
	if err != nil {
		metrics.LawyerSearchTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result := Filter(corpus, criteria)
	outcome := "filtered"
	if len(result) == 0 {
		result = Fallback(corpus, query)
		outcome = "fallback"
	}
	metrics.LawyerSearchTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.String("search.outcome", outcome),
		attribute.Int("search.results", len(result)),
	)

	return byRating(result), nil
}

func (s *SearchService) extract(ctx context.Context, query string) (*SearchCriteria, error) {
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Purpose:   llm.PurposeSearch,
		Model:     s.model,
		Messages:  []llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(searchPrompt, query)}},
		MaxTokens: 1024,
		JSON:      true,
	})
	if err != nil {
		logger.FromContext(ctx).Error("search extraction failed", zap.Error(err))
		return nil, fmt.Errorf("%w: search extraction failed", ErrUpstream)
	}

	reply := resp.Content
	if strings.TrimSpace(reply) == "" {
		reply = "{}"
	}

	var c SearchCriteria
	if err := llm.DecodeJSON(reply, &c); err != nil {
		logger.FromContext(ctx).Error("unparseable search extraction",
			zap.Error(err),
			zap.Int("reply_length", len(reply)),
		)
		return nil, fmt.Errorf("%w: invalid response format", ErrUpstream)
	}
	return &c, nil
}

// Filter narrows the corpus by each extracted criterion in turn. All
// comparisons are case-insensitive substring matches.
func Filter(corpus []model.LawyerProfile, c *SearchCriteria) []model.LawyerProfile {
	out := append([]model.LawyerProfile(nil), corpus...)

	if len(c.PracticeAreas) > 0 {
		out = keep(out, func(p *model.LawyerProfile) bool {
			return anyContains([]string{p.Specialization}, c.PracticeAreas)
		})
	}
	if len(c.ExpertiseNeeded) > 0 {
		out = keep(out, func(p *model.LawyerProfile) bool {
			return anyContains(p.Expertise, c.ExpertiseNeeded)
		})
	}
	if loc := string(c.Location); loc != "" {
		out = keep(out, func(p *model.LawyerProfile) bool {
			return containsFold(p.Location, loc)
		})
	}
	if years, ok := c.ExperienceLevel.minYears(); ok {
		out = keep(out, func(p *model.LawyerProfile) bool {
			return p.Experience >= years
		})
	}
	return out
}

// Fallback matches the raw query against name, specialization, location and
// expertise tags.
func Fallback(corpus []model.LawyerProfile, query string) []model.LawyerProfile {
	return keep(append([]model.LawyerProfile(nil), corpus...), func(p *model.LawyerProfile) bool {
		return containsFold(p.Name, query) ||
			containsFold(p.Specialization, query) ||
			containsFold(p.Location, query) ||
			anyContains(p.Expertise, []string{query})
	})
}

func keep(in []model.LawyerProfile, pred func(*model.LawyerProfile) bool) []model.LawyerProfile {
	out := in[:0]
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

// anyContains reports whether some haystack contains some needle.
func anyContains(haystacks, needles []string) bool {
	for _, h := range haystacks {
		for _, n := range needles {
			if containsFold(h, n) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func byRating(in []model.LawyerProfile) []model.LawyerProfile {
	out := make([]model.LawyerProfile, 0, len(in))
	out = append(out, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	return out
}
