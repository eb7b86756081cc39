package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/arena/internal/adapters/repository"
	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func recordDuel(svc *service.Service) (*model.Timeline, error) {
	rec := svc.NewRecorder()
	if err := rec.Start("duel"); err != nil {
		return nil, err
	}
	actors := []model.ActorSnapshot{
		{ID: "A", Health: 100, MaxHealth: 100, Alive: true},
		{ID: "B", Health: 100, MaxHealth: 100, Alive: true},
		{ID: "C", Health: 100, MaxHealth: 100, Alive: true},
	}
	for ts := int64(0); ts <= 3000; ts += 100 {
		if err := rec.RecordFrame(actors, nil, ts); err != nil {
			return nil, err
		}
	}
	if err := rec.RecordKill("A", "B", "rail", 1200); err != nil {
		return nil, err
	}
	if err := rec.RecordKill("A", "C", "rail", 2800); err != nil {
		return nil, err
	}
	if err := rec.Stop(); err != nil {
		return nil, err
	}
	return rec.Finalize([]model.RosterEntry{
		{ID: "A", Name: "Ada", Kills: 2, Alive: true},
		{ID: "B", Name: "Bo", Alive: true},
		{ID: "C", Name: "Cy", Alive: true},
	}, "Ada wins")
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by an on-disk badger store", t, func() {
		dir := t.TempDir()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		newService := func() *service.Service {
			return service.New(
				service.WithBackend(repository.BackendConfig{Kind: repository.BackendBadger, BadgerPath: dir}),
				service.WithStoreCapacity(5),
			)
		}

		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a recorded duel is submitted and the service restarts", func() {
			tl, err := recordDuel(svc)
			So(err, ShouldBeNil)
			So(tl.Summary.MVP.ID, ShouldEqual, "A")

			_, err = svc.Submit(ctx, tl)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			restarted := newService()
			So(restarted.Start(ctx), ShouldBeNil)
			defer func() { _ = restarted.Stop(ctx) }()

			Convey("Then the replay is restored with its highlights", func() {
				got, err := restarted.Get(ctx, tl.ID)
				So(err, ShouldBeNil)
				So(got.Decimated, ShouldBeTrue)
				So(got.Summary.MVP.Name, ShouldEqual, "Ada")
				So(got.Highlights, ShouldNotBeEmpty)
				So(got.Highlights[0].Kind, ShouldEqual, model.HighlightMultiKill)
				So(got.Highlights[0].Importance, ShouldEqual, 8)
			})

			Convey("And resubmitting it is reported as a duplicate", func() {
				res, err := restarted.Submit(ctx, tl)
				So(err, ShouldBeNil)
				So(res.Duplicate(), ShouldBeTrue)
			})

			Convey("And the store stats reflect the badger backend", func() {
				st := restarted.GetStats()["store"].(repository.Stats)
				So(st.Backend, ShouldEqual, repository.BackendBadger)
				So(st.Count, ShouldEqual, 1)
				So(st.Persisted, ShouldEqual, 1)
			})
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}
