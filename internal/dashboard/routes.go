package dashboard

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchyard/internal/notify"
	"github.com/zulandar/switchyard/internal/project"
	"github.com/zulandar/switchyard/internal/task"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, n notify.Notifier) {
	router.GET("/healthz", handleHealth())

	api := router.Group("/api")
	api.GET("/projects", handleProjectList(db))
	api.GET("/projects/:id", handleProjectDetail(db))
	api.GET("/projects/:id/columns", handleColumns(db))
	api.GET("/projects/:id/status-options", handleStatusOptions(db))
	api.PUT("/projects/:id/columns", handleSetColumns(db, n))
	api.GET("/projects/:id/tasks", handleTasks(db))
	api.GET("/stats/completed-today", handleCompletedToday(db))
	api.GET("/events", handleSSE(db))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleProjectList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(db)
		if err != nil {
			writeError(c, err)
			return
		}
		views := make([]projectView, len(projects))
		for i, p := range projects {
			views[i] = newProjectView(p, false)
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleProjectDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := project.Get(db, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newProjectView(*p, true))
	}
}

func handleColumns(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cols, err := project.Columns(db, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cols)
	}
}

func handleStatusOptions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cols, err := project.Columns(db, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildStatusOptions(cols))
	}
}

// handleSetColumns replaces a project's columns. A JSON null body resets
// the board to the defaults.
func handleSetColumns(db *gorm.DB, n notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cols []workflow.Column
		if err := c.ShouldBindJSON(&cols); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of columns or null"})
			return
		}

		p, report, err := project.Update(c.Request.Context(), db, c.Param("id"), project.UpdateOpts{
			Columns: project.SetColumns(cols),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		if msg, ok := notify.FromUpdate(p.Name, report); ok {
			if err := n.Notify(c.Request.Context(), msg); err != nil {
				log.Printf("dashboard: notify: %v", err)
			}
		}
		c.JSON(http.StatusOK, newUpdateView(p, report))
	}
}

func handleTasks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		cols, err := project.Columns(db, id)
		if err != nil {
			writeError(c, err)
			return
		}
		active := c.Query("active") == "1" || c.Query("active") == "true"
		tasks, err := task.List(db, task.ListFilters{ProjectID: id, ActiveOnly: active})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newTaskViews(tasks, cols))
	}
}

func handleCompletedToday(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		since := startOfDay(time.Now())
		n, err := task.CountCompletedSince(db, since)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"since": since, "count": n})
	}
}

// writeError maps domain errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "kind": string(verr.Kind)})
	case errors.Is(err, project.ErrNotFound), errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("dashboard: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
