package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/prompts"
)

// ErrMalformedArticle is returned when the backend's answer has no usable
// article in it. Nothing is stored in that case.
var ErrMalformedArticle = errors.New("malformed article")

type GenerateArticleRequest struct {
	Track    string
	Topic    string
	Category string
	Language string
}

// ArticleService serves study sheets per (track, topic). Articles are
// generated once and then read from the database by every owner.
type ArticleService interface {
	List(dbc dbctx.Context, track string) ([]*types.KnowledgeArticle, error)
	// Get returns nil when no article was generated yet.
	Get(dbc dbctx.Context, track, topic string) (*types.KnowledgeArticle, error)
	// Generate returns the stored article, generating and storing it first
	// when the topic has none. created reports whether it was stored by this
	// request or by a concurrent one it joined.
	Generate(dbc dbctx.Context, req GenerateArticleRequest) (article *types.KnowledgeArticle, created bool, err error)
}

type articleService struct {
	db       *gorm.DB
	log      *logger.Logger
	articles repos.ArticleRepo
	route    router.Route
	catalog  *interview.Catalog
	timeout  time.Duration
	inflight singleflight.Group
}

func NewArticleService(db *gorm.DB, baseLog *logger.Logger, repoSet repos.Set, route router.Route, catalog *interview.Catalog, timeouts Timeouts) ArticleService {
	return &articleService{
		db:       db,
		log:      baseLog.With("service", "ArticleService"),
		articles: repoSet.Article,
		route:    route,
		catalog:  catalog,
		timeout:  timeouts.withDefaults().Article,
	}
}

func (s *articleService) List(dbc dbctx.Context, track string) ([]*types.KnowledgeArticle, error) {
	out, err := s.articles.ListByTrack(dbc, strings.TrimSpace(track))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

func (s *articleService) Get(dbc dbctx.Context, track, topic string) (*types.KnowledgeArticle, error) {
	track, topic = strings.TrimSpace(track), strings.TrimSpace(topic)
	if track == "" || topic == "" {
		return nil, apierr.Validation("track and topic required")
	}
	a, err := s.articles.GetByTopic(dbc, track, interview.TopicKey(s.catalog.Normalize(topic)))
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	return a, nil
}

func (s *articleService) Generate(dbc dbctx.Context, req GenerateArticleRequest) (*types.KnowledgeArticle, bool, error) {
	track := strings.TrimSpace(req.Track)
	topic := s.catalog.Normalize(req.Topic)
	if track == "" || topic == "" {
		return nil, false, apierr.Validation("track and topic required")
	}
	t, ok := s.catalog.Track(track)
	if !ok {
		return nil, false, apierr.Validation("unknown track %q", track)
	}
	key := interview.TopicKey(topic)

	existing, err := s.articles.GetByTopic(dbc, track, key)
	if err != nil {
		return nil, false, fmt.Errorf("load article: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category, _ = s.catalog.CategoryOf(track, topic)
	}

	// Concurrent requests for one topic share a single backend call.
	type result struct {
		article *types.KnowledgeArticle
		created bool
	}
	v, err, _ := s.inflight.Do(track+"\x00"+key, func() (any, error) {
		a, created, err := s.generateAndStore(dbc, t, topic, key, category, req.Language)
		return result{article: a, created: created}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return r.article, r.created, nil
}

func (s *articleService) generateAndStore(dbc dbctx.Context, track interview.CatalogTrack, topic, key, category, language string) (*types.KnowledgeArticle, bool, error) {
	ctx, span := observability.StartSpan(dbc.Context(), "learn.generate_article",
		attribute.String("track", track.Key),
		attribute.String("topic", topic),
	)
	defer span.End()

	role := track.Role
	if role == "" {
		role = "Software Engineer"
	}
	if strings.TrimSpace(language) == "" {
		language = "English"
	}
	p, err := prompts.Build(prompts.PromptArticle, prompts.Input{
		Role:     role,
		Topic:    topic,
		Category: category,
		Language: language,
	})
	if err != nil {
		return nil, false, fmt.Errorf("build article prompt: %w", err)
	}

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	out, err := s.route.Engine.GenerateText(genCtx, s.route.Model, []engine.Message{
		{Role: engine.RoleSystem, Content: p.System},
		{Role: engine.RoleUser, Content: p.User},
	}, engine.GenerateOptions{Temperature: 0.4, JSON: true})
	if err != nil {
		s.log.Warn("article generation failed", append(ctxutil.LogFields(ctx), "track", track.Key, "topic", topic, "error", err)...)
		return nil, false, apierr.New(http.StatusBadGateway, "generation_failed", fmt.Errorf("generate article: %w", err))
	}

	row, err := parseArticle(out)
	if err != nil {
		s.log.Warn("article extraction failed", append(ctxutil.LogFields(ctx), "track", track.Key, "topic", topic, "error", err)...)
		return nil, false, apierr.New(http.StatusBadGateway, "article_malformed", err)
	}
	row.Track = track.Key
	row.TopicKey = key
	row.Topic = topic
	row.Category = category
	row.PromptVersion = p.Version
	if row.Title == "" {
		row.Title = topic
	}

	// Waiters share this call, so the write must outlive the first caller.
	dbc = dbctx.Context{Ctx: context.WithoutCancel(ctx), Tx: dbc.Tx}
	created, err := s.articles.Create(dbc, row)
	if err != nil {
		return nil, false, fmt.Errorf("store article: %w", err)
	}
	if created {
		return row, true, nil
	}
	// Another replica stored the topic first; serve its copy.
	winner, err := s.articles.GetByTopic(dbc, track.Key, key)
	if err != nil {
		return nil, false, fmt.Errorf("load article: %w", err)
	}
	if winner == nil {
		return row, false, nil
	}
	return winner, false, nil
}

type rawArticle struct {
	Title           string                  `json:"title"`
	Content         string                  `json:"content"`
	Difficulty      string                  `json:"difficulty"`
	KeyPoints       []string                `json:"key_points"`
	CommonQuestions []types.ArticleQuestion `json:"common_questions"`
}

// parseArticle takes the JSON object between the first '{' and the last '}'
// so code fences around it are ignored.
func parseArticle(text string) (*types.KnowledgeArticle, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedArticle)
	}
	var raw rawArticle
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArticle, err)
	}
	content := strings.TrimSpace(raw.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedArticle)
	}

	difficulty := strings.ToLower(strings.TrimSpace(raw.Difficulty))
	switch difficulty {
	case "junior", "mid", "senior":
	default:
		difficulty = "mid"
	}
	questions := make([]types.ArticleQuestion, 0, len(raw.CommonQuestions))
	for _, q := range raw.CommonQuestions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		q.Hint = strings.TrimSpace(q.Hint)
		questions = append(questions, q)
	}
	points := make([]string, 0, len(raw.KeyPoints))
	for _, kp := range raw.KeyPoints {
		if kp = strings.TrimSpace(kp); kp != "" {
			points = append(points, kp)
		}
	}
	return &types.KnowledgeArticle{
		Title:           strings.TrimSpace(raw.Title),
		Content:         content,
		Difficulty:      difficulty,
		KeyPoints:       datatypes.JSONSlice[string](points),
		CommonQuestions: datatypes.JSONSlice[types.ArticleQuestion](questions),
	}, nil
}
