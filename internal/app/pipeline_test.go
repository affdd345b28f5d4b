package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/guildsnap/internal/adapters/raiderio"
	"github.com/okian/guildsnap/internal/adapters/source"
	"github.com/okian/guildsnap/internal/app"
	"github.com/okian/guildsnap/internal/config"
	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type response struct {
	status int
	body   string
}

var (
	notFound = response{http.StatusBadRequest, `{"statusCode":400,"error":"Bad Request","message":"Could not find requested character"}`}
	down     = response{http.StatusServiceUnavailable, `{"statusCode":503,"message":"Service Unavailable"}`}
)

// fakeAPI serves canned raider.io answers. Each name maps to a sequence of
// responses; the last one repeats.
type fakeAPI struct {
	mu       sync.Mutex
	rosters  map[string][]response
	profiles map[string][]response
	calls    map[string]int
	clock    ratelimit.Clock
	times    []time.Time

	// homes pins a player to a region; profile calls elsewhere answer not found.
	homes   map[string]string
	regions map[string][]string
	// onProfile runs before every profile answer.
	onProfile func()
}

func newFakeAPI(clock ratelimit.Clock) *fakeAPI {
	return &fakeAPI{
		rosters:  map[string][]response{},
		profiles: map[string][]response{},
		calls:    map[string]int{},
		clock:    clock,
		homes:    map[string]string{},
		regions:  map[string][]string{},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	f.mu.Lock()
	var seq []response
	var k string
	switch r.URL.Path {
	case "/guilds/profile":
		k, seq = "guild:"+name, f.rosters[name]
	case "/characters/profile":
		k, seq = "player:"+name, f.profiles[name]
	}
	n := f.calls[k]
	f.calls[k]++
	f.times = append(f.times, f.clock.Now())
	region := r.URL.Query().Get("region")
	f.regions[k] = append(f.regions[k], region)
	home, pinned := f.homes[name]
	hook := f.onProfile
	f.mu.Unlock()

	if hook != nil && r.URL.Path == "/characters/profile" {
		hook()
	}

	resp := notFound
	if len(seq) > 0 {
		resp = seq[min(n, len(seq)-1)]
	}
	if pinned && r.URL.Path == "/characters/profile" && region != home {
		resp = notFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (f *fakeAPI) regionsFor(k string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.regions[k]...)
}

func (f *fakeAPI) callCount(k string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[k]
}

func rosterOK(guild, realm string, members ...[2]string) response {
	type character struct {
		Name  string `json:"name"`
		Class string `json:"class"`
		Spec  string `json:"active_spec_name"`
	}
	type member struct {
		Character character `json:"character"`
	}
	body := struct {
		Name    string   `json:"name"`
		Realm   string   `json:"realm"`
		Members []member `json:"members"`
	}{Name: guild, Realm: realm}
	for _, m := range members {
		body.Members = append(body.Members, member{Character: character{Name: m[0], Class: m[1], Spec: "Spec"}})
	}
	raw, _ := json.Marshal(body)
	return response{http.StatusOK, string(raw)}
}

func scoresOK(all float64) response {
	return response{http.StatusOK, fmt.Sprintf(`{"mythic_plus_scores_by_season":[{"season":"current","scores":{"all":%g,"dps":%g}}]}`, all, all)}
}

type fixture struct {
	dir      string
	api      *fakeAPI
	srv      *httptest.Server
	clock    *ratelimit.ManualClock
	governor *ratelimit.Governor
}

func newFixture(t *testing.T, limit int, window time.Duration) *fixture {
	t.Helper()
	clock := ratelimit.NewManualClock(epoch)
	api := newFakeAPI(clock)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	gov, err := ratelimit.NewGovernor(limit, window, ratelimit.WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{dir: t.TempDir(), api: api, srv: srv, clock: clock, governor: gov}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) snapshotPath() string { return filepath.Join(f.dir, "out", "members.json") }
func (f *fixture) sideLogPath() string  { return filepath.Join(f.dir, "errors.log") }

func (f *fixture) pipeline(guilds, players string, opts ...app.Option) *app.Pipeline {
	client := raiderio.New(raiderio.WithBaseURL(f.srv.URL), raiderio.WithGovernor(f.governor))
	base := []app.Option{
		app.WithPaths(guilds, players, f.snapshotPath(), f.sideLogPath()),
		app.WithClock(f.clock),
		app.WithRosterDelay(0),
		app.WithWorkerCount(4),
	}
	return app.New(client, source.NewLoader(source.WithRegion("eu")), append(base, opts...)...)
}

func (f *fixture) records(t *testing.T) []model.PlayerRecord {
	t.Helper()
	raw, err := os.ReadFile(f.snapshotPath())
	if err != nil {
		t.Fatal(err)
	}
	var out []model.PlayerRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestPipelineWorkedExample(t *testing.T) {
	for _, strategy := range []string{config.StrategyPool, config.StrategyBatch} {
		Convey("Given one guild with a known and an unknown player using the "+strategy+" strategy", t, func() {
			f := newFixture(t, 300, time.Minute)
			f.api.rosters["TestGuild"] = []response{rosterOK("TestGuild", "Silvermoon", [2]string{"Alice", "Mage"}, [2]string{"Bob", "Warrior"})}
			f.api.profiles["Alice"] = []response{scoresOK(2500)}
			f.api.profiles["Bob"] = []response{notFound}
			guilds := f.write(t, "guilds.txt", "region=eu&realm=Silvermoon&name=TestGuild\n")

			report, err := f.pipeline(guilds, "", app.WithStrategy(strategy)).Run(context.Background())

			Convey("Then the run succeeds", func() {
				So(err, ShouldBeNil)
				So(report.RunID, ShouldNotBeEmpty)
				So(report.Guilds, ShouldEqual, 1)
				So(report.Players, ShouldEqual, 2)
				So(report.Enriched, ShouldEqual, 1)
				So(report.Unknown, ShouldEqual, 1)
				So(report.Retried, ShouldEqual, 0)
				So(report.Degraded(), ShouldBeTrue)
			})

			Convey("Then Alice has her score and Bob keeps zeros", func() {
				recs := f.records(t)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Name, ShouldEqual, "Alice")
				So(*recs[0].Guild, ShouldEqual, "TestGuild")
				So(recs[0].Class, ShouldEqual, "Mage")
				So(recs[0].All, ShouldEqual, float64(2500))
				So(recs[1].Name, ShouldEqual, "Bob")
				So(recs[1].Class, ShouldEqual, "Warrior")
				So(recs[1].Scores.IsZero(), ShouldBeTrue)
			})

			Convey("Then the side log names Bob once and Bob is not retried", func() {
				raw, _ := os.ReadFile(f.sideLogPath())
				So(string(raw), ShouldEqual, "character not found: realm=Silvermoon name=Bob\n")
				So(f.api.callCount("player:Bob"), ShouldEqual, 1)
			})
		})
	}
}

func TestPipelineEmptyInputs(t *testing.T) {
	Convey("Given an empty guild list and no player list", t, func() {
		f := newFixture(t, 10, time.Minute)
		guilds := f.write(t, "guilds.txt", "# nothing yet\n")

		report, err := f.pipeline(guilds, "").Run(context.Background())

		Convey("Then the snapshot is an empty JSON array", func() {
			So(err, ShouldBeNil)
			So(report.Players, ShouldEqual, 0)
			raw, _ := os.ReadFile(f.snapshotPath())
			So(strings.TrimSpace(string(raw)), ShouldEqual, "[]")
		})
	})

	Convey("Given a missing guild list in lenient mode", t, func() {
		f := newFixture(t, 10, time.Minute)

		_, err := f.pipeline(filepath.Join(f.dir, "absent.txt"), "").Run(context.Background())

		So(err, ShouldBeNil)
		So(f.records(t), ShouldBeEmpty)
	})
}

func TestPipelineFailureIsolation(t *testing.T) {
	Convey("Given two guilds where one roster is down for the whole run", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["Broken"] = []response{down}
		f.api.rosters["Healthy"] = []response{rosterOK("Healthy", "Silvermoon", [2]string{"Carol", "Priest"})}
		f.api.profiles["Carol"] = []response{scoresOK(1800)}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=Broken\nrealm=Silvermoon&name=Healthy\n")

		report, err := f.pipeline(guilds, "").Run(context.Background())

		Convey("Then the healthy guild still lands in the snapshot", func() {
			So(err, ShouldBeNil)
			recs := f.records(t)
			So(recs, ShouldHaveLength, 1)
			So(recs[0].Name, ShouldEqual, "Carol")
			So(recs[0].All, ShouldEqual, float64(1800))
		})

		Convey("Then the broken guild is retried exactly once and dropped", func() {
			So(f.api.callCount("guild:Broken"), ShouldEqual, 2)
			So(report.Retried, ShouldEqual, 1)
			So(report.GuildsFailed, ShouldEqual, 1)
			So(report.Dropped, ShouldEqual, 1)
		})
	})
}

func TestPipelineRetryPass(t *testing.T) {
	Convey("Given transient failures on a roster and a profile", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["Flaky"] = []response{down, rosterOK("Flaky", "Silvermoon", [2]string{"Dave", "Druid"})}
		f.api.rosters["Stable"] = []response{rosterOK("Stable", "Silvermoon", [2]string{"Erin", "Hunter"}, [2]string{"Finn", "Monk"})}
		f.api.profiles["Dave"] = []response{scoresOK(2100)}
		f.api.profiles["Erin"] = []response{down, scoresOK(2200)}
		f.api.profiles["Finn"] = []response{down}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=Flaky\nrealm=Silvermoon&name=Stable\n")

		report, err := f.pipeline(guilds, "").Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the retried roster brings its members and they are enriched", func() {
			recs := f.records(t)
			So(recs, ShouldHaveLength, 3)
			So(recs[0].Name, ShouldEqual, "Dave")
			So(*recs[0].Guild, ShouldEqual, "Flaky")
			So(recs[0].All, ShouldEqual, float64(2100))
		})

		Convey("Then a recovered player gets scores and a still failing one keeps zeros", func() {
			recs := f.records(t)
			So(recs[1].Name, ShouldEqual, "Erin")
			So(recs[1].All, ShouldEqual, float64(2200))
			So(recs[2].Name, ShouldEqual, "Finn")
			So(recs[2].Scores.IsZero(), ShouldBeTrue)
		})

		Convey("Then every target is attempted at most twice", func() {
			So(f.api.callCount("guild:Flaky"), ShouldEqual, 2)
			So(f.api.callCount("player:Erin"), ShouldEqual, 2)
			So(f.api.callCount("player:Finn"), ShouldEqual, 2)
			So(f.api.callCount("player:Dave"), ShouldEqual, 1)
			So(report.Retried, ShouldEqual, 3)
			So(report.Recovered, ShouldEqual, 2)
			So(report.Dropped, ShouldEqual, 1)
		})
	})
}

func TestPipelineGuildRegion(t *testing.T) {
	Convey("Given a US guild while the default region is EU", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["G"] = []response{rosterOK("G", "Stormrage", [2]string{"Zed", "Monk"})}
		f.api.profiles["Zed"] = []response{scoresOK(1900)}
		f.api.homes["Zed"] = "us"
		f.api.profiles["Guest"] = []response{scoresOK(1200)}
		f.api.homes["Guest"] = "eu"
		guilds := f.write(t, "guilds.txt", "region=us&realm=Stormrage&name=G\n")
		players := f.write(t, "players.txt", "Guest Silvermoon\n")

		report, err := f.pipeline(guilds, players).Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the member is scored in the guild's region", func() {
			So(f.api.regionsFor("guild:G"), ShouldResemble, []string{"us"})
			So(f.api.regionsFor("player:Zed"), ShouldResemble, []string{"us"})
			recs := f.records(t)
			So(recs, ShouldHaveLength, 2)
			So(recs[1].Name, ShouldEqual, "Zed")
			So(recs[1].All, ShouldEqual, float64(1900))
		})

		Convey("Then a supplementary player falls back to the default region", func() {
			So(f.api.regionsFor("player:Guest"), ShouldResemble, []string{"eu"})
			So(f.records(t)[0].All, ShouldEqual, float64(1200))
		})

		Convey("Then nobody is reported missing", func() {
			So(report.Unknown, ShouldEqual, 0)
			raw, _ := os.ReadFile(f.sideLogPath())
			So(string(raw), ShouldBeEmpty)
		})
	})
}

func TestPipelineSupplementaryPlayers(t *testing.T) {
	Convey("Given a roster and a supplementary list overlapping it", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["TestGuild"] = []response{rosterOK("TestGuild", "Silvermoon", [2]string{"Alice", "Mage"})}
		f.api.profiles["Alice"] = []response{scoresOK(2500)}
		f.api.profiles["Guest"] = []response{scoresOK(1500)}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=TestGuild\n")
		players := f.write(t, "players.txt", "Alice Silvermoon\nGuest Argent Dawn\n")

		_, err := f.pipeline(guilds, players).Run(context.Background())
		So(err, ShouldBeNil)

		recs := f.records(t)

		Convey("Then the guest is enriched without a guild", func() {
			So(recs, ShouldHaveLength, 2)
			So(recs[0].Realm, ShouldEqual, "Argent Dawn")
			So(recs[0].Guild, ShouldBeNil)
			So(recs[0].All, ShouldEqual, float64(1500))
		})

		Convey("Then seeding does not clear the roster guild", func() {
			So(recs[1].Name, ShouldEqual, "Alice")
			So(*recs[1].Guild, ShouldEqual, "TestGuild")
			So(f.api.callCount("player:Alice"), ShouldEqual, 1)
		})
	})
}

func TestPipelineDeterminism(t *testing.T) {
	Convey("Given a player listed by two guilds", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["First"] = []response{rosterOK("First", "Silvermoon", [2]string{"Alice", "Mage"}, [2]string{"Zed", "Rogue"})}
		f.api.rosters["Second"] = []response{rosterOK("Second", "Silvermoon", [2]string{"Alice", "Mage"})}
		f.api.profiles["Alice"] = []response{scoresOK(2500)}
		f.api.profiles["Zed"] = []response{scoresOK(900)}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=First\nrealm=Silvermoon&name=Second\n")

		p := f.pipeline(guilds, "", app.WithRosterConcurrency(2))
		_, err := p.Run(context.Background())
		So(err, ShouldBeNil)
		first, _ := os.ReadFile(f.snapshotPath())

		_, err = p.Run(context.Background())
		So(err, ShouldBeNil)
		second, _ := os.ReadFile(f.snapshotPath())

		Convey("Then both runs write identical bytes", func() {
			So(string(second), ShouldEqual, string(first))
		})

		Convey("Then there is one record attributed to the later guild", func() {
			recs := f.records(t)
			So(recs, ShouldHaveLength, 2)
			So(recs[0].Name, ShouldEqual, "Alice")
			So(*recs[0].Guild, ShouldEqual, "Second")
		})
	})
}

func TestPipelineRecoveredGuildOrder(t *testing.T) {
	Convey("Given a player on two rosters where the first guild only answers on retry", t, func() {
		f := newFixture(t, 300, time.Minute)
		f.api.rosters["First"] = []response{down, rosterOK("First", "Silvermoon", [2]string{"Alice", "Mage"}, [2]string{"Yara", "Shaman"})}
		f.api.rosters["Second"] = []response{rosterOK("Second", "Silvermoon", [2]string{"Alice", "Mage"})}
		f.api.profiles["Alice"] = []response{scoresOK(2500)}
		f.api.profiles["Yara"] = []response{scoresOK(2000)}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=First\nrealm=Silvermoon&name=Second\n")

		report, err := f.pipeline(guilds, "").Run(context.Background())
		So(err, ShouldBeNil)
		recs := f.records(t)

		Convey("Then the later guild in the list still wins attribution", func() {
			So(recs, ShouldHaveLength, 2)
			So(recs[0].Name, ShouldEqual, "Alice")
			So(*recs[0].Guild, ShouldEqual, "Second")
			So(recs[0].All, ShouldEqual, float64(2500))
		})

		Convey("Then members only the recovered guild lists are enriched once", func() {
			So(recs[1].Name, ShouldEqual, "Yara")
			So(*recs[1].Guild, ShouldEqual, "First")
			So(recs[1].All, ShouldEqual, float64(2000))
			So(f.api.callCount("player:Yara"), ShouldEqual, 1)
			So(f.api.callCount("player:Alice"), ShouldEqual, 1)
			So(report.Recovered, ShouldEqual, 1)
		})
	})
}

// maxInWindow returns the most requests seen in any span [t, t+window).
func maxInWindow(times []time.Time, window time.Duration) int {
	best := 0
	for i := range times {
		n := 0
		for j := i; j < len(times) && times[j].Sub(times[i]) < window; j++ {
			n++
		}
		best = max(best, n)
	}
	return best
}

func TestPipelineRateBudget(t *testing.T) {
	for _, strategy := range []string{config.StrategyPool, config.StrategyBatch} {
		Convey("Given a budget of 3 calls per minute and the "+strategy+" strategy", t, func() {
			f := newFixture(t, 3, time.Minute)
			var members [][2]string
			for i := 0; i < 8; i++ {
				name := fmt.Sprintf("P%d", i)
				members = append(members, [2]string{name, "Paladin"})
				f.api.profiles[name] = []response{scoresOK(float64(1000 + i))}
			}
			f.api.rosters["Big"] = []response{rosterOK("Big", "Silvermoon", members...)}
			guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=Big\n")

			// One worker keeps the recorded times equal to the grant times.
			_, err := f.pipeline(guilds, "",
				app.WithStrategy(strategy),
				app.WithWorkerCount(1),
				app.WithRateLimit(3, time.Minute),
			).Run(context.Background())

			Convey("Then every player is enriched", func() {
				So(err, ShouldBeNil)
				for _, rec := range f.records(t) {
					So(rec.All, ShouldBeGreaterThanOrEqualTo, float64(1000))
				}
			})

			Convey("Then no rolling minute holds more than three calls", func() {
				f.api.mu.Lock()
				times := append([]time.Time(nil), f.api.times...)
				f.api.mu.Unlock()

				So(times, ShouldHaveLength, 9)
				So(maxInWindow(times, time.Minute), ShouldBeLessThanOrEqualTo, 3)
				So(f.governor.Granted(), ShouldEqual, int64(9))
			})
		})
	}
}

func TestPipelineRosterDelay(t *testing.T) {
	Convey("Given three guilds and a one second roster delay", t, func() {
		f := newFixture(t, 300, time.Minute)
		for _, g := range []string{"A", "B", "C"} {
			f.api.rosters[g] = []response{rosterOK(g, "Silvermoon")}
		}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=A\nrealm=Silvermoon&name=B\nrealm=Silvermoon&name=C\n")

		_, err := f.pipeline(guilds, "", app.WithRosterDelay(time.Second), app.WithRosterConcurrency(1)).Run(context.Background())

		So(err, ShouldBeNil)
		slept, n := f.clock.Slept()
		So(n, ShouldEqual, 2)
		So(slept, ShouldEqual, 2*time.Second)
	})
}

func TestPipelineCatastrophic(t *testing.T) {
	Convey("Given a side log in a directory that does not exist", t, func() {
		f := newFixture(t, 10, time.Minute)
		guilds := f.write(t, "guilds.txt", "")

		_, err := f.pipeline(guilds, "", app.WithPaths(guilds, "", f.snapshotPath(), filepath.Join(f.dir, "nope", "errors.log"))).Run(context.Background())

		So(errors.Is(err, app.ErrCatastrophic), ShouldBeTrue)
	})

	Convey("Given a snapshot path under a regular file", t, func() {
		f := newFixture(t, 10, time.Minute)
		guilds := f.write(t, "guilds.txt", "")
		blocker := f.write(t, "blocker", "")

		_, err := f.pipeline(guilds, "", app.WithPaths(guilds, "", filepath.Join(blocker, "members.json"), f.sideLogPath())).Run(context.Background())

		So(errors.Is(err, app.ErrCatastrophic), ShouldBeTrue)
	})

	Convey("Given strict inputs and a missing player list", t, func() {
		f := newFixture(t, 10, time.Minute)
		guilds := f.write(t, "guilds.txt", "")
		client := raiderio.New(raiderio.WithBaseURL(f.srv.URL))
		loader := source.NewLoader(source.WithStrict(true))

		p := app.New(client, loader, app.WithPaths(guilds, filepath.Join(f.dir, "absent.txt"), f.snapshotPath(), f.sideLogPath()))
		_, err := p.Run(context.Background())

		Convey("Then the run fails and no snapshot is written", func() {
			So(errors.Is(err, app.ErrCatastrophic), ShouldBeTrue)
			So(errors.Is(err, source.ErrUnreadableInput), ShouldBeTrue)
			_, statErr := os.Stat(f.snapshotPath())
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		f := newFixture(t, 10, time.Minute)
		f.api.rosters["TestGuild"] = []response{rosterOK("TestGuild", "Silvermoon", [2]string{"Alice", "Mage"})}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=TestGuild\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.pipeline(guilds, "").Run(ctx)

		Convey("Then no snapshot is written", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			_, statErr := os.Stat(f.snapshotPath())
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})
}

func TestPipelineInterruptedEnrichment(t *testing.T) {
	Convey("Given a run cancelled while players are still queued", t, func() {
		f := newFixture(t, 300, time.Minute)
		var members [][2]string
		for i := 0; i < 20; i++ {
			name := fmt.Sprintf("P%02d", i)
			members = append(members, [2]string{name, "Warlock"})
			f.api.profiles[name] = []response{scoresOK(1000)}
		}
		f.api.rosters["Big"] = []response{rosterOK("Big", "Silvermoon", members...)}
		guilds := f.write(t, "guilds.txt", "realm=Silvermoon&name=Big\n")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.api.onProfile = cancel

		done := make(chan error, 1)
		go func() {
			_, err := f.pipeline(guilds, "", app.WithWorkerCount(1), app.WithQueueSize(1)).Run(ctx)
			done <- err
		}()

		Convey("Then the workers stop and the run returns without a snapshot", func() {
			select {
			case err := <-done:
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			case <-time.After(10 * time.Second):
				t.Fatal("run did not return after cancellation")
			}
			So(f.api.callCount("player:P19"), ShouldEqual, 0)
			_, statErr := os.Stat(f.snapshotPath())
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		f := newFixture(t, 10, time.Minute)
		cfg := config.New()
		cfg.GuildListPath = f.write(t, "guilds.txt", "")
		cfg.SnapshotPath = f.snapshotPath()
		cfg.ErrorLogPath = f.sideLogPath()
		cfg.PlayerListPath = ""

		p := app.New(raiderio.New(raiderio.WithBaseURL(f.srv.URL)), source.NewLoader(), app.FromConfig(cfg)...)
		report, err := p.Run(context.Background())

		So(err, ShouldBeNil)
		So(report.SnapshotPath, ShouldEqual, cfg.SnapshotPath)
	})
}
