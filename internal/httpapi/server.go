// Package httpapi exposes the tick core's control plane over HTTP: a
// thin Gin adapter that translates requests into tick.Intents appended
// to the session's queue, and read-only handlers that serve immutable
// snapshots of the world state. This layer runs concurrently with the
// tick loop; world-state changes reach the core as enqueued intents,
// the way the teacher's internal/api.Server sits in front of its
// database.Repository. Session control is the exception: the pause,
// resume, fast-forward and autosave handlers set Clock and Autosave
// fields directly, and manual load and replay replace the whole
// session (replay runs Tick itself to rebuild it).
package httpapi

import (
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/internal/config"
	"github.com/blackswan-colony/simcore/internal/store"
	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/modcap"
	"github.com/blackswan-colony/simcore/pkg/research"
)

// Server is the control-plane HTTP adapter bound to one running
// session.
type Server struct {
	router *gin.Engine
	repo   *store.Repository

	mu         sync.RWMutex
	session    *tick.Session
	scenario   *config.ScenarioDefinition
	sessionID  string
	techGate   research.UnlockGate
	modGate    *modcap.Gate
	replaying  bool
}

// NewServer creates an API server bound to a running session and its
// backing scenario definition; repo may be nil when no replay/save
// persistence is configured (headless ad hoc runs).
func NewServer(sess *tick.Session, scenario *config.ScenarioDefinition, sessionID string, repo *store.Repository) *Server {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsCfg))

	requires := map[string][]string{}
	for _, t := range scenario.Research {
		requires[t.ID] = t.Requires
	}

	s := &Server{
		router:    router,
		repo:      repo,
		session:   sess,
		scenario:  scenario,
		sessionID: sessionID,
		techGate:  research.UnlockGate{Requires: requires},
		modGate:   modcap.NewGate(sess.RNG),
	}
	s.setupRoutes()
	return s
}

// Router exposes the underlying engine, e.g. for httptest or a
// handed-off http.Server.
func (s *Server) Router() *gin.Engine { return s.router }

// Start runs the HTTP server on addr (e.g. ":8080").
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	api.GET("/state/summary", s.getStateSummary)
	api.POST("/clock/scale", s.postClockScale)
	api.POST("/job", s.postJob)
	api.POST("/scheduler", s.postSchedulerPolicy)
	api.POST("/sched/policy", s.postSchedulerPolicy)
	api.POST("/io/:yard/sim", s.postIOSim)
	api.GET("/metrics/io", s.getMetricsIO)
	api.GET("/metrics/faults", s.getMetricsFaults)
	api.GET("/metrics/gpu", s.getMetricsGPU)
	api.GET("/metrics/summary", s.getMetricsSummary)
	api.POST("/corruption/tunables", s.postCorruptionTunables)
	api.POST("/workers/:id/reimage", s.postWorkerReimage)
	api.POST("/gpu/tunables", s.postGPUTunables)
	api.POST("/gpu/flags", s.postGPUFlags)
	api.GET("/events", s.getEvents)
	api.POST("/events/:id/fire", s.postEventFire)
	api.POST("/research/unlock/:id", s.postResearchUnlock)
	api.POST("/rituals/:id/start", s.postRitualStart)

	api.POST("/session/start", s.postSessionStart)
	api.POST("/session/pause", s.postSessionPause)
	api.POST("/session/resume", s.postSessionResume)
	api.POST("/session/ffwd", s.postSessionFfwd)
	api.GET("/session/status", s.getSessionStatus)
	api.POST("/session/autosave", s.postSessionAutosave)
	api.POST("/save/manual", s.postSaveManual)
	api.POST("/load/manual", s.postLoadManual)
	api.POST("/replay/start", s.postReplayStart)
	api.POST("/replay/stop", s.postReplayStop)

	api.GET("/mods/list", s.getModsList)
	api.POST("/mods/reload", s.postModsReload)
	api.POST("/mods/enable", s.postModsEnable)
	api.POST("/mods/dryrun", s.postModsDryrun)
	api.GET("/mods/docs", s.getModsDocs)
}

func errJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
