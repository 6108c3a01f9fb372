package camp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/basecamp"
	"github.com/xy-planning-network/basecamp/logger"
)

const sessionCleanupTask = "sessions:cleanup"

// A Task is a unit of scheduled work triggered over HTTP by an external
// scheduler. Tasks must tolerate being invoked more than once: the
// endpoint authenticates callers, it does not deduplicate them.
type Task func(ctx context.Context) error

// taskHandler runs the named Task exactly once per request and reports
// the outcome. The bearer check happens upstream in middleware; by the
// time this runs the caller holds the cron secret.
func (c *Camp) taskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		task, ok := c.tasks[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		runID, _ := r.Context().Value(basecamp.RequestIDKey).(string)
		lc := &logger.LogContext{Data: map[string]any{"task": name, "run_id": runID}}

		c.l.Info("task started", lc)

		status := "completed"
		code := http.StatusOK
		if err := task(r.Context()); err != nil {
			c.l.Error("task failed", &logger.LogContext{Error: err, Data: lc.Data})
			status = "failed"
			code = http.StatusInternalServerError
		} else {
			c.l.Info("task completed", lc)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"task":   name,
			"run_id": runID,
			"status": status,
		})
	}
}

// sessionCleanup purges expired session records. Registered by default
// when both the auth subsystem and a database are wired.
func (c *Camp) sessionCleanup() Task {
	return func(ctx context.Context) error {
		n, err := c.auth.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}

		c.l.Info("purged expired sessions", &logger.LogContext{Data: map[string]any{"count": n}})
		return nil
	}
}
