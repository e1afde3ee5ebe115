package match_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
)

// cannedEncoder returns pre-assigned vectors per exact input text so
// similarity outcomes in tests are known in advance. Unknown texts map to
// the first basis vector; texts in failTexts fail the encode.
type cannedEncoder struct {
	vecs      map[string][]float32
	failTexts map[string]bool
	failAll   bool
}

func (c *cannedEncoder) Encode(_ context.Context, text string, _ embedding.Purpose) ([]float32, error) {
	if c.failAll || c.failTexts[text] {
		return nil, embedding.ErrEncodingUnavailable
	}
	if v, ok := c.vecs[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (c *cannedEncoder) Dims() int     { return 3 }
func (c *cannedEncoder) Model() string { return "canned-v1" }

type memStore struct {
	users    map[string]*model.User
	postings map[string]*model.Posting
	order    []string
	listErr  error
}

func (m *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (m *memStore) GetPosting(_ context.Context, id string) (*model.Posting, error) {
	p, ok := m.postings[id]
	if !ok {
		return nil, fmt.Errorf("posting %s not found", id)
	}
	return p, nil
}

func (m *memStore) ListPostings(_ context.Context, kind model.EntityKind, limit int) ([]model.Posting, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Posting
	for _, id := range m.order {
		p := m.postings[id]
		if p.Kind != kind || !p.Active {
			continue
		}
		out = append(out, *p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubIndex struct {
	hits       []match.IndexMatch
	err        error
	lastFilter match.IndexFilter
}

func (s *stubIndex) Upsert(context.Context, ...match.IndexItem) error { return nil }

func (s *stubIndex) Query(_ context.Context, _ []float32, _ int, filter match.IndexFilter) ([]match.IndexMatch, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func (s *stubIndex) Delete(context.Context, ...string) error { return nil }

func posting(id, title string, kind model.EntityKind, required ...string) *model.Posting {
	return &model.Posting{
		ID:             id,
		Kind:           kind,
		Title:          title,
		Company:        "Acme",
		RequiredSkills: required,
		Experience:     model.LevelEntry,
		Active:         true,
	}
}

func TestOverlapStrategy(t *testing.T) {
	Convey("Given the skill-intersection strategy", t, func() {
		strat := match.NewOverlapStrategy()
		user := &model.User{ID: "u1", Skills: []string{"Python", "Django"}}

		Convey("A partial skill overlap scores the intersection ratio", func() {
			results, err := strat.Rank(context.Background(), user,
				[]model.Posting{*posting("j1", "Backend Dev", model.KindJob, "Python", "Django", "Docker")}, 10)

			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			So(results[0].MatchScore, ShouldEqual, 66.7)
			So(results[0].MatchedSkills, ShouldResemble, []string{"python", "django"})
			So(results[0].MissingSkills, ShouldResemble, []string{"docker"})
			So(results[0].RejectionProbability, ShouldEqual, 38.3)
			So(results[0].RejectionRisk, ShouldEqual, scoring.RiskMedium)
			So(results[0].RecommendedAction, ShouldEqual, "Consider Upskilling")
			So(results[0].Reasoning, ShouldEqual, "Good match with 2 skills. Learn docker to improve.")
		})

		Convey("A posting listing no required skills scores the neutral default", func() {
			results, err := strat.Rank(context.Background(), user,
				[]model.Posting{*posting("j1", "Generalist", model.KindJob)}, 10)

			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			So(results[0].MatchScore, ShouldEqual, 50)
			So(results[0].RejectionProbability, ShouldEqual, 50)
			So(results[0].RejectionRisk, ShouldEqual, scoring.RiskMedium)
		})

		Convey("Postings in the rejection history are never returned", func() {
			burned := &model.User{ID: "u1", Skills: []string{"python"}, RejectionHistory: []string{"j1"}}
			results, err := strat.Rank(context.Background(), burned,
				[]model.Posting{
					*posting("j1", "Backend Dev", model.KindJob, "Python"),
					*posting("j2", "Platform Dev", model.KindJob, "Python"),
				}, 10)

			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			So(results[0].Posting.ID, ShouldEqual, "j2")
		})

		Convey("Equal scores keep candidate input order and topK truncates", func() {
			candidates := []model.Posting{
				*posting("j1", "First", model.KindJob, "Python"),
				*posting("j2", "Second", model.KindJob, "Python"),
				*posting("j3", "Third", model.KindJob, "Python"),
			}
			results, err := strat.Rank(context.Background(), user, candidates, 2)

			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 2)
			So(results[0].Posting.ID, ShouldEqual, "j1")
			So(results[1].Posting.ID, ShouldEqual, "j2")
		})
	})
}

func TestSemanticRanking(t *testing.T) {
	Convey("Given a ranker over a canned encoder", t, func() {
		user := &model.User{
			ID:              "u1",
			Skills:          []string{"python", "django"},
			ExperienceLevel: model.LevelEntry,
		}
		strong := posting("j1", "Django Dev", model.KindJob, "python", "django")
		partial := posting("j2", "DevOps Eng", model.KindJob, "python", "django", "docker")
		weak := posting("j3", "Designer", model.KindJob, "figma")

		enc := &cannedEncoder{vecs: map[string][]float32{
			embedding.UserText(user):       {1, 0, 0},
			embedding.PostingText(strong):  {0.87, 0.3, 0},
			embedding.PostingText(partial): {0.6, 0.5, 0},
			embedding.PostingText(weak):    {0.3, 0.2, 0},
			"python": {0, 1, 0},
			"django": {0, 0, 1},
			"docker": {0.1, 0.2, 0.5},
			"figma":  {0.2, 0.1, 0.4},
		}}
		builder := embedding.NewBuilder(enc)
		gaps := scoring.NewGapFinder(builder)
		semantic := match.NewSemanticStrategy(builder, gaps)

		store := &memStore{
			users:    map[string]*model.User{"u1": user},
			postings: map[string]*model.Posting{"j1": strong, "j2": partial, "j3": weak},
			order:    []string{"j1", "j2", "j3"},
		}
		index := &stubIndex{hits: []match.IndexMatch{
			{ID: "job_j1", Score: 0.87},
			{ID: "job_j2", Score: 0.6},
			{ID: "job_j3", Score: 0.3},
		}}
		ranker := match.NewRanker(store, index, builder, semantic)

		Convey("Index-sourced candidates rank by similarity with the floor applied", func() {
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u1"})

			So(err, ShouldBeNil)
			So(out.Source, ShouldEqual, match.SourceIndex)
			So(out.Strategy, ShouldEqual, match.StrategySemantic)
			So(index.lastFilter, ShouldResemble, match.IndexFilter{Kind: model.KindJob, Model: "canned-v1"})
			So(out.Results, ShouldHaveLength, 2)

			So(out.Results[0].Posting.ID, ShouldEqual, "j1")
			So(out.Results[0].MatchScore, ShouldEqual, 87)
			So(out.Results[0].MissingSkills, ShouldBeEmpty)
			So(out.Results[0].RejectionProbability, ShouldEqual, 5)
			So(out.Results[0].RejectionRisk, ShouldEqual, scoring.RiskLow)
			So(out.Results[0].RecommendedAction, ShouldEqual, "Apply Now - Excellent Match!")

			So(out.Results[1].Posting.ID, ShouldEqual, "j2")
			So(out.Results[1].MatchScore, ShouldEqual, 60)
			So(out.Results[1].MissingSkills, ShouldResemble, []string{"docker"})
			So(out.Results[1].RejectionProbability, ShouldEqual, 38)
			So(out.Results[1].RejectionRisk, ShouldEqual, scoring.RiskMedium)
		})

		Convey("An index outage falls back to a store scan", func() {
			index.err = match.ErrIndexUnavailable
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u1"})

			So(err, ShouldBeNil)
			So(out.Source, ShouldEqual, match.SourceScan)
			So(out.Message, ShouldNotBeEmpty)
			So(out.Results, ShouldHaveLength, 2)
			So(out.Results[0].Posting.ID, ShouldEqual, "j1")
		})

		Convey("An encoder outage fails the whole call", func() {
			enc.failAll = true
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u1"})

			So(out, ShouldBeNil)
			So(errors.Is(err, embedding.ErrEncodingUnavailable), ShouldBeTrue)
		})

		Convey("A gap embedding failure degrades only that candidate", func() {
			enc.failTexts = map[string]bool{"docker": true}
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u1"})

			So(err, ShouldBeNil)
			So(out.Results, ShouldHaveLength, 2)
			So(out.Results[0].Degraded, ShouldBeFalse)
			So(out.Results[1].Degraded, ShouldBeTrue)
			So(out.Results[1].MissingSkills, ShouldResemble, []string{"python", "django", "docker"})
		})

		Convey("A profile without skills short-circuits with a signal", func() {
			store.users["u2"] = &model.User{ID: "u2"}
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u2"})

			So(err, ShouldBeNil)
			So(out.NeedsProfileData, ShouldBeTrue)
			So(out.Results, ShouldBeEmpty)
			So(out.Message, ShouldNotBeEmpty)
		})

		Convey("An unknown strategy name is rejected", func() {
			_, err := ranker.Match(context.Background(), match.Request{UserID: "u1", Strategy: "hybrid"})

			So(errors.Is(err, match.ErrUnknownStrategy), ShouldBeTrue)
		})

		Convey("Rejection history filters index-sourced candidates", func() {
			user.RejectionHistory = []string{"j1"}
			out, err := ranker.Match(context.Background(), match.Request{UserID: "u1"})

			So(err, ShouldBeNil)
			So(out.Results, ShouldHaveLength, 1)
			So(out.Results[0].Posting.ID, ShouldEqual, "j2")
		})

		Convey("TopK clamps to the configured maximum", func() {
			small := match.NewRanker(store, index, builder, semantic, match.WithTopKMax(1))
			out, err := small.Match(context.Background(), match.Request{UserID: "u1", TopK: 50})

			So(err, ShouldBeNil)
			So(out.Results, ShouldHaveLength, 1)
			So(out.Results[0].Posting.ID, ShouldEqual, "j1")
		})
	})
}

func TestVectorIDs(t *testing.T) {
	Convey("Vector ids round-trip through the kind prefix", t, func() {
		So(match.VectorID(model.KindJob, "42"), ShouldEqual, "job_42")
		So(match.EntityID("job_42"), ShouldEqual, "42")
		So(match.EntityID("internship_7"), ShouldEqual, "7")
		So(match.EntityID("unprefixed"), ShouldEqual, "unprefixed")
	})
}
