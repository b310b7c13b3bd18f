// Command colonysim drives a deterministic colony simulation session:
// "run" seeds a scenario and ticks it headlessly, logging every
// applied intent to the replay database; "serve" additionally exposes
// the session's HTTP control plane while the tick loop runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/blackswan-colony/simcore/internal/config"
	"github.com/blackswan-colony/simcore/internal/httpapi"
	"github.com/blackswan-colony/simcore/internal/replay"
	"github.com/blackswan-colony/simcore/internal/store"
	"github.com/blackswan-colony/simcore/internal/tick"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: colonysim <run|serve> [flags]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runHeadless(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q (want run or serve)\n", os.Args[1])
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet) (scenarioDir, scenario *string, scenarioSeed, sessionSeed *uint64, dbPath *string) {
	scenarioDir = fs.String("scenario-dir", "configs/scenarios", "Directory of scenario YAML files")
	scenario = fs.String("scenario", "s1", "Scenario name to load (without extension)")
	scenarioSeed = fs.Uint64("scenario-seed", 1, "Scenario RNG seed")
	sessionSeed = fs.Uint64("session-seed", 0, "Session RNG seed, XORed with scenario-seed")
	dbPath = fs.String("db", "colonysim.db", "Path to the replay/snapshot SQLite database")
	return
}

func seedSession(scenarioDir, scenarioName string, scenarioSeed, sessionSeed uint64) (*tick.Session, *config.ScenarioDefinition, error) {
	loader := config.NewLoader(scenarioDir)
	def, err := loader.Load(scenarioName)
	if err != nil {
		return nil, nil, err
	}
	sess, err := config.Seed(def, scenarioSeed, sessionSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("colonysim: seeding session: %w", err)
	}
	return sess, def, nil
}

func runHeadless(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenarioDir, scenario, scenarioSeed, sessionSeed, dbPath := commonFlags(fs)
	ticks := fs.Int64("ticks", 1000, "Number of ticks to run before stopping")
	fs.Parse(args)

	sess, def, err := seedSession(*scenarioDir, *scenario, *scenarioSeed, *sessionSeed)
	if err != nil {
		log.Fatalf("colonysim: %v", err)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("colonysim: opening database: %v", err)
	}
	defer db.Close()
	repo := store.NewRepository(db)

	sessionID := uuid.NewString()
	if err := repo.CreateSession(&store.SessionRecord{
		ID:          sessionID,
		ScenarioID:  def.ID,
		SessionSeed: sess.RNG.RootSeed(),
	}); err != nil {
		log.Fatalf("colonysim: recording session: %v", err)
	}

	log.Printf("colonysim: running scenario %q for %d ticks, session %s", *scenario, *ticks, sessionID)
	driveTicks(sess, repo, sessionID, def.ID, *ticks)
	log.Printf("colonysim: stopped at tick %d, state %s", sess.CurrentTick, sess.State)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	scenarioDir, scenario, scenarioSeed, sessionSeed, dbPath := commonFlags(fs)
	addr := fs.String("addr", ":8080", "HTTP listen address")
	ticks := fs.Int64("ticks", 0, "Number of ticks to run before stopping (0 runs until killed)")
	fs.Parse(args)

	sess, def, err := seedSession(*scenarioDir, *scenario, *scenarioSeed, *sessionSeed)
	if err != nil {
		log.Fatalf("colonysim: %v", err)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("colonysim: opening database: %v", err)
	}
	defer db.Close()
	repo := store.NewRepository(db)

	sessionID := uuid.NewString()
	if err := repo.CreateSession(&store.SessionRecord{
		ID:          sessionID,
		ScenarioID:  def.ID,
		SessionSeed: sess.RNG.RootSeed(),
	}); err != nil {
		log.Fatalf("colonysim: recording session: %v", err)
	}

	api := httpapi.NewServer(sess, def, sessionID, repo)
	go func() {
		log.Printf("colonysim: control plane listening on %s", *addr)
		if err := api.Start(*addr); err != nil {
			log.Fatalf("colonysim: http server: %v", err)
		}
	}()

	log.Printf("colonysim: ticking scenario %q, session %s", *scenario, sessionID)
	api.DriveTicks(repo, def.ID, *ticks)
	log.Printf("colonysim: stopped, session %s", sessionID)
}

// driveTicks advances sess at the rate its Clock.Scale dictates,
// appending each tick's applied intents to the replay log. Used only
// by the headless run path, which has no concurrent reader to race
// against; runServe instead drives through httpapi.Server.DriveTicks
// so ticking and HTTP reads share one mutex. maxTicks of 0 runs until
// the session leaves SessionRunning.
func driveTicks(sess *tick.Session, repo *store.Repository, sessionID, scenarioID string, maxTicks int64) {
	for maxTicks <= 0 || sess.CurrentTick < maxTicks {
		rate := sess.Clock.TicksPerRealSecond()
		if rate == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if rate > 0 {
			time.Sleep(time.Duration(float64(time.Second) / rate))
		}

		results := sess.Tick(0)
		if err := replay.AppendTickLog(repo, sessionID, sess, results); err != nil {
			log.Printf("colonysim: failed to append tick log at tick %d: %v", sess.CurrentTick, err)
		}

		if sess.Autosave.ShouldSave(sess.CurrentTick) {
			if err := replay.Autosave(repo, sess, sessionID, scenarioID); err != nil {
				log.Printf("colonysim: autosave failed at tick %d: %v", sess.CurrentTick, err)
			}
		}
		if sess.State != tick.SessionRunning {
			return
		}
	}
}
