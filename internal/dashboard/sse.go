package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchyard/internal/models"
	"gorm.io/gorm"
)

// pollInterval is how often the event stream checks for new status changes.
var pollInterval = 2 * time.Second

// statusEvent is one task status change pushed to the board.
type statusEvent struct {
	ID        uint      `json:"id"`
	TaskID    string    `json:"task_id"`
	ProjectID string    `json:"project_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// handleSSE streams status changes recorded after the client connected.
// ?project=<id> limits the stream to one project.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		projectID := c.Query("project")
		scope := func() *gorm.DB {
			q := db.Model(&models.StatusChange{})
			if projectID != "" {
				q = q.Where("project_id = ?", projectID)
			}
			return q
		}

		// Only changes after connect are streamed.
		var lastSeenID uint
		var latest models.StatusChange
		if err := scope().Order("id DESC").Limit(1).Find(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(pollInterval)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var changes []models.StatusChange
				if err := scope().Where("id > ?", lastSeenID).Order("id ASC").Find(&changes).Error; err != nil || len(changes) == 0 {
					continue
				}
				for _, ch := range changes {
					writeSSE(c.Writer, "status", statusEvent{
						ID:        ch.ID,
						TaskID:    ch.TaskID,
						ProjectID: ch.ProjectID,
						From:      ch.FromStatus,
						To:        ch.ToStatus,
						Reason:    ch.Reason,
						At:        ch.CreatedAt,
					})
				}
				lastSeenID = changes[len(changes)-1].ID
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
