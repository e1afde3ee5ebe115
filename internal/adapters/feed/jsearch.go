package feed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hirestorm/matchd/internal/domain/inference"
	"github.com/hirestorm/matchd/internal/domain/model"
)

// JSearch defaults.
const (
	jsearchBaseURL    = "https://jsearch.p.rapidapi.com"
	jsearchHost       = "jsearch.p.rapidapi.com"
	jsearchDatePosted = "month"
	jsearchPerPageCap = 50
)

// JSearchOption applies a configuration option to the JSearch source.
type JSearchOption func(*JSearch)

// WithJSearchBaseURL overrides the API base URL.
func WithJSearchBaseURL(url string) JSearchOption {
	return func(j *JSearch) {
		if url != "" {
			j.baseURL = url
		}
	}
}

// JSearch fetches jobs from the JSearch API on RapidAPI. Internship
// searches pass the INTERN employment type through to the provider.
type JSearch struct {
	client  *resty.Client
	baseURL string
}

// NewJSearch creates a JSearch source.
func NewJSearch(apiKey string, opts ...JSearchOption) (*JSearch, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}

	j := &JSearch{baseURL: jsearchBaseURL}
	for _, opt := range opts {
		opt(j)
	}
	j.client = resty.New().
		SetBaseURL(j.baseURL).
		SetTimeout(feedTimeout).
		SetHeader("X-RapidAPI-Key", apiKey).
		SetHeader("X-RapidAPI-Host", jsearchHost).
		SetHeader("Accept", "application/json")
	return j, nil
}

// Name implements Source.
func (j *JSearch) Name() string { return "jsearch" }

type jsearchResponse struct {
	Data []struct {
		JobTitle          string `json:"job_title"`
		EmployerName      string `json:"employer_name"`
		JobDescription    string `json:"job_description"`
		JobCity           string `json:"job_city"`
		JobApplyLink      string `json:"job_apply_link"`
		JobPostedAt       string `json:"job_posted_at_datetime_utc"`
		JobEmploymentType string `json:"job_employment_type"`
		JobIsRemote       bool   `json:"job_is_remote"`
	} `json:"data"`
}

// Fetch implements Source.
func (j *JSearch) Fetch(ctx context.Context, q Query) ([]model.Posting, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 || perPage > jsearchPerPageCap {
		perPage = jsearchPerPageCap
	}

	params := map[string]string{
		"query":       fmt.Sprintf("%s in %s", q.Keywords, q.Location),
		"page":        strconv.Itoa(page),
		"num_pages":   "1",
		"date_posted": jsearchDatePosted,
	}
	if q.Kind == model.KindInternship {
		params["employment_types"] = "INTERN"
	}

	var out jsearchResponse
	resp, err := j.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("%w: jsearch: %v", ErrFeedUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: jsearch returned %s", ErrFeedUnavailable, resp.Status())
	}

	records := out.Data
	if len(records) > perPage {
		records = records[:perPage]
	}

	postings := make([]model.Posting, 0, len(records))
	for _, r := range records {
		company := r.EmployerName
		if company == "" {
			company = "Unknown"
		}
		location := r.JobCity
		if location == "" {
			location = q.Location
		}
		p := model.Posting{
			ID:          uuid.NewString(),
			Kind:        kindOrJob(q.Kind),
			Title:       r.JobTitle,
			Company:     company,
			Description: r.JobDescription,
			Location:    location,
			URL:         r.JobApplyLink,
			Source:      j.Name(),
			Category:    "Technology",
			Active:      true,
			PostedAt:    parseTime(r.JobPostedAt),
		}
		if r.JobIsRemote {
			p.WorkMode = "remote"
		}
		inference.FillPosting(&p)
		postings = append(postings, p)
	}
	return postings, nil
}
