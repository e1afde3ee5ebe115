// Command seedfeed loads demo postings into a running matchd instance, or
// directly into its store with -direct. Useful for demos and smoke tests
// when no feed credentials are configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hirestorm/matchd/internal/adapters/repository"
	"github.com/hirestorm/matchd/internal/domain/model"
)

const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
	seedTimeout    = 2 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", defaultBaseURL, "Base URL of a running matchd instance")
		direct  = flag.Bool("direct", false, "Write directly to the store instead of the HTTP API")
		dbPath  = flag.String("db", "matchd.db", "SQLite path for -direct mode")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	postings := samplePostings()
	var err error
	if *direct {
		err = seedDirect(ctx, *dbPath, postings)
	} else {
		err = seedHTTP(ctx, *baseURL, *timeout, postings)
	}
	if err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	fmt.Printf("seeded %d postings\n", len(postings))
}

func seedHTTP(ctx context.Context, baseURL string, timeout time.Duration, postings []model.Posting) error {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	for _, p := range postings {
		resp, err := client.R().
			SetContext(ctx).
			SetBody(p).
			Post("/api/postings")
		if err != nil {
			return fmt.Errorf("submit %q: %w", p.Title, err)
		}
		if resp.IsError() {
			return fmt.Errorf("submit %q: status %d: %s", p.Title, resp.StatusCode(), resp.String())
		}
	}
	return nil
}

func seedDirect(ctx context.Context, dbPath string, postings []model.Posting) error {
	store, err := repository.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, p := range postings {
		exists, err := store.PostingExists(ctx, p.Title, p.Company)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		posting := p
		if err := store.CreatePosting(ctx, &posting); err != nil {
			return err
		}
	}
	return nil
}

// samplePostings returns five demo internships and a few synthetic jobs.
func samplePostings() []model.Posting {
	now := time.Now()
	postings := []model.Posting{
		{
			Title:             "Software Development Intern",
			Company:           "TechStartup India",
			Description:       "Build web applications using React and Node.js, write clean maintainable code and participate in code reviews. Pursuing B.Tech/B.E in Computer Science.",
			Location:          "Remote",
			WorkMode:          "remote",
			RequiredSkills:    []string{"JavaScript", "React", "Node.js", "Git"},
			SalaryMin:         10000,
			SalaryMax:         20000,
			Category:          "Technology",
			DurationMonths:    6,
			EducationRequired: "pursuing",
			YearOfStudy:       "any",
		},
		{
			Title:             "Data Science Intern",
			Company:           "AI Solutions Ltd",
			Description:       "Work on real ML projects: data analysis, visualization and predictive models. Requires Python, Pandas, NumPy and a statistics background.",
			Location:          "Bangalore, India",
			WorkMode:          "hybrid",
			RequiredSkills:    []string{"Python", "Machine Learning", "Pandas", "Data Analysis"},
			SalaryMin:         15000,
			SalaryMax:         25000,
			Category:          "Data Science",
			DurationMonths:    3,
			EducationRequired: "pursuing",
			YearOfStudy:       "3rd",
		},
		{
			Title:             "Frontend Development Intern",
			Company:           "WebTech Solutions",
			Description:       "Develop responsive web pages, implement designs using React and work with REST APIs. HTML, CSS and JavaScript required.",
			Location:          "Mumbai, India",
			WorkMode:          "onsite",
			RequiredSkills:    []string{"HTML", "CSS", "JavaScript", "React"},
			SalaryMin:         12000,
			SalaryMax:         18000,
			Category:          "Web Development",
			DurationMonths:    6,
			EducationRequired: "pursuing",
			YearOfStudy:       "2nd",
		},
		{
			Title:             "Backend Development Intern",
			Company:           "CloudNine Tech",
			Description:       "REST API development, database design, cloud deployment and performance optimization. Python or Node.js with SQL basics; final year students preferred.",
			Location:          "Remote",
			WorkMode:          "remote",
			RequiredSkills:    []string{"Python", "FastAPI", "SQL", "REST API"},
			SalaryMin:         15000,
			SalaryMax:         22000,
			Category:          "Backend Development",
			DurationMonths:    6,
			EducationRequired: "pursuing",
			YearOfStudy:       "4th",
		},
		{
			Title:             "Mobile App Development Intern",
			Company:           "AppMakers Inc",
			Description:       "Mobile development internship for Android/iOS apps: app architecture, React Native development and API integration. JavaScript knowledge required.",
			Location:          "Pune, India",
			WorkMode:          "hybrid",
			RequiredSkills:    []string{"JavaScript", "React Native", "Mobile Development"},
			SalaryMin:         10000,
			SalaryMax:         20000,
			Category:          "Mobile Development",
			DurationMonths:    6,
			EducationRequired: "pursuing",
			YearOfStudy:       "any",
		},
	}
	for i := range postings {
		postings[i].Kind = model.KindInternship
		postings[i].URL = "https://example.com/apply"
	}

	jobs := []model.Posting{
		{
			Title:          "Senior Backend Engineer",
			Company:        "CloudNine Tech",
			Description:    "Own scalable Go and Python services, design APIs and mentor junior engineers. 5+ years of backend experience required.",
			Location:       "Bangalore, India",
			WorkMode:       "hybrid",
			RequiredSkills: []string{"Go", "Python", "PostgreSQL", "Kubernetes"},
			Experience:     model.LevelSenior,
			SalaryMin:      2500000,
			SalaryMax:      4000000,
			Category:       "Backend Development",
		},
		{
			Title:          "Full Stack Developer",
			Company:        "TechStartup India",
			Description:    "Build product features end to end with React and Node.js. 2-4 years of experience with modern JavaScript.",
			Location:       "Remote",
			WorkMode:       "remote",
			RequiredSkills: []string{"JavaScript", "React", "Node.js", "MongoDB"},
			Experience:     model.LevelMid,
			SalaryMin:      1200000,
			SalaryMax:      2000000,
			Category:       "Web Development",
		},
		{
			Title:          "Machine Learning Engineer",
			Company:        "AI Solutions Ltd",
			Description:    "Train and ship ML models to production. Python, TensorFlow and solid data engineering fundamentals.",
			Location:       "Hyderabad, India",
			WorkMode:       "onsite",
			RequiredSkills: []string{"Python", "TensorFlow", "Machine Learning", "SQL"},
			Experience:     model.LevelMid,
			SalaryMin:      1800000,
			SalaryMax:      3000000,
			Category:       "Data Science",
		},
	}
	for i := range jobs {
		jobs[i].Kind = model.KindJob
		jobs[i].URL = "https://example.com/apply"
	}
	postings = append(postings, jobs...)

	for i := range postings {
		postings[i].ID = uuid.NewString()
		postings[i].Source = "seed"
		postings[i].Active = true
		postings[i].PostedAt = now
	}
	return postings
}
