package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/gomail.v2"

	"github.com/hirestorm/matchd/internal/adapters/notify"
	"github.com/hirestorm/matchd/internal/domain/model"
)

func capture(sent *[]*gomail.Message, fail error) func(*gomail.Message) error {
	return func(m *gomail.Message) error {
		if fail != nil {
			return fail
		}
		*sent = append(*sent, m)
		return nil
	}
}

func TestJobMatchNotification(t *testing.T) {
	Convey("Given a mailer with a captured transport", t, func() {
		var sent []*gomail.Message
		mailer, err := notify.NewMailer(notify.Config{From: "matchd@example.com"},
			notify.WithSendFunc(capture(&sent, nil)))
		So(err, ShouldBeNil)

		user := &model.User{ID: "u1", Email: "dev@example.com", FullName: "Dev One"}
		posting := &model.Posting{ID: "j1", Title: "Backend Dev", Company: "Acme", URL: "https://example.com/j1"}

		Convey("Match notifications carry subject, score and skill gaps", func() {
			err := mailer.NotifyJobMatch(context.Background(), user, posting, 82.4, []string{"docker"})

			So(err, ShouldBeNil)
			So(sent, ShouldHaveLength, 1)
			So(sent[0].GetHeader("To"), ShouldResemble, []string{"dev@example.com"})
			So(sent[0].GetHeader("Subject")[0], ShouldContainSubstring, "Backend Dev at Acme")
			So(sent[0].GetHeader("Subject")[0], ShouldContainSubstring, "82%")
		})

		Convey("Users without an email are rejected before dialing", func() {
			err := mailer.NotifyJobMatch(context.Background(), &model.User{ID: "u2"}, posting, 90, nil)

			So(errors.Is(err, notify.ErrNoRecipient), ShouldBeTrue)
			So(sent, ShouldBeEmpty)
		})

		Convey("Transport failures surface as errors", func() {
			broken, err := notify.NewMailer(notify.Config{From: "matchd@example.com"},
				notify.WithSendFunc(capture(&sent, errors.New("smtp down"))))
			So(err, ShouldBeNil)

			So(broken.NotifyJobMatch(context.Background(), user, posting, 90, nil), ShouldNotBeNil)
		})

		Convey("Digests list each match with its score", func() {
			results := []model.MatchResult{
				{Posting: *posting, MatchScore: 91},
				{Posting: model.Posting{Title: "Platform Eng", Company: "Initech"}, MatchScore: 78},
			}
			err := mailer.NotifyUserDigest(context.Background(), user, results)

			So(err, ShouldBeNil)
			So(sent, ShouldHaveLength, 1)
			So(sent[0].GetHeader("Subject")[0], ShouldContainSubstring, "top 2")
		})

		Convey("Empty digests send nothing", func() {
			So(mailer.NotifyUserDigest(context.Background(), user, nil), ShouldBeNil)
			So(sent, ShouldBeEmpty)
		})

		Convey("A from address is required", func() {
			_, err := notify.NewMailer(notify.Config{})
			So(err, ShouldEqual, notify.ErrMissingFrom)
		})
	})
}

func TestTemplatesAreTwoPart(t *testing.T) {
	Convey("Messages carry a plain body with an HTML alternative", t, func() {
		var sent []*gomail.Message
		mailer, err := notify.NewMailer(notify.Config{From: "matchd@example.com"},
			notify.WithSendFunc(capture(&sent, nil)))
		So(err, ShouldBeNil)

		user := &model.User{ID: "u1", Email: "dev@example.com"}
		posting := &model.Posting{Title: "Backend Dev", Company: "Acme"}
		So(mailer.NotifyJobMatch(context.Background(), user, posting, 75, nil), ShouldBeNil)

		var buf strings.Builder
		_, err = sent[0].WriteTo(&buf)
		So(err, ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "text/plain")
		So(buf.String(), ShouldContainSubstring, "text/html")
	})
}
