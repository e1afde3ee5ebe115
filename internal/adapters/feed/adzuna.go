// Package feed fetches job and internship postings from external job-search
// providers and normalizes them into the domain Posting shape. Records with
// unstructured descriptions get skills and experience filled in by the
// keyword inference fallback.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hirestorm/matchd/internal/domain/inference"
	"github.com/hirestorm/matchd/internal/domain/model"
)

// Query is a provider-independent feed search.
type Query struct {
	Keywords string
	Location string
	Kind     model.EntityKind
	PerPage  int
	Page     int
}

// Source fetches postings from one external provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]model.Posting, error)
}

// Adzuna defaults.
const (
	adzunaBaseURL    = "https://api.adzuna.com/v1/api/jobs"
	adzunaCountry    = "in"
	adzunaMaxDaysOld = 30
	adzunaPerPageCap = 50
	feedTimeout      = 15 * time.Second
)

// AdzunaOption applies a configuration option to the Adzuna source.
type AdzunaOption func(*Adzuna)

// WithAdzunaBaseURL overrides the API base URL.
func WithAdzunaBaseURL(url string) AdzunaOption {
	return func(a *Adzuna) {
		if url != "" {
			a.baseURL = url
		}
	}
}

// WithAdzunaCountry sets the country path segment.
func WithAdzunaCountry(country string) AdzunaOption {
	return func(a *Adzuna) {
		if country != "" {
			a.country = country
		}
	}
}

// Adzuna fetches jobs from the Adzuna search API.
type Adzuna struct {
	client  *resty.Client
	appID   string
	appKey  string
	baseURL string
	country string
}

// NewAdzuna creates an Adzuna source.
func NewAdzuna(appID, appKey string, opts ...AdzunaOption) (*Adzuna, error) {
	if appID == "" || appKey == "" {
		return nil, ErrMissingCredentials
	}

	a := &Adzuna{
		appID:   appID,
		appKey:  appKey,
		baseURL: adzunaBaseURL,
		country: adzunaCountry,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client = resty.New().
		SetBaseURL(a.baseURL).
		SetTimeout(feedTimeout).
		SetHeader("Accept", "application/json")
	return a, nil
}

// Name implements Source.
func (a *Adzuna) Name() string { return "adzuna" }

type adzunaResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Company struct {
			DisplayName string `json:"display_name"`
		} `json:"company"`
		Description string `json:"description"`
		Location    struct {
			DisplayName string `json:"display_name"`
		} `json:"location"`
		SalaryMin   float64 `json:"salary_min"`
		SalaryMax   float64 `json:"salary_max"`
		RedirectURL string  `json:"redirect_url"`
		Created     string  `json:"created"`
		Category    struct {
			Label string `json:"label"`
		} `json:"category"`
	} `json:"results"`
}

// Fetch implements Source.
func (a *Adzuna) Fetch(ctx context.Context, q Query) ([]model.Posting, error) {
	perPage := q.PerPage
	if perPage <= 0 || perPage > adzunaPerPageCap {
		perPage = adzunaPerPageCap
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	var out adzunaResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"app_id":           a.appID,
			"app_key":          a.appKey,
			"results_per_page": strconv.Itoa(perPage),
			"what":             q.Keywords,
			"where":            q.Location,
			"max_days_old":     strconv.Itoa(adzunaMaxDaysOld),
		}).
		SetResult(&out).
		Get(fmt.Sprintf("/%s/search/%d", a.country, page))
	if err != nil {
		return nil, fmt.Errorf("%w: adzuna: %v", ErrFeedUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: adzuna returned %s", ErrFeedUnavailable, resp.Status())
	}

	postings := make([]model.Posting, 0, len(out.Results))
	for _, r := range out.Results {
		company := r.Company.DisplayName
		if company == "" {
			company = "Unknown"
		}
		p := model.Posting{
			ID:          uuid.NewString(),
			Kind:        kindOrJob(q.Kind),
			Title:       r.Title,
			Company:     company,
			Description: r.Description,
			Location:    r.Location.DisplayName,
			SalaryMin:   r.SalaryMin,
			SalaryMax:   r.SalaryMax,
			URL:         r.RedirectURL,
			Source:      a.Name(),
			Category:    r.Category.Label,
			Active:      true,
			PostedAt:    parseTime(r.Created),
		}
		inference.FillPosting(&p)
		postings = append(postings, p)
	}
	return postings, nil
}

func kindOrJob(kind model.EntityKind) model.EntityKind {
	if kind == "" {
		return model.KindJob
	}
	return kind
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
