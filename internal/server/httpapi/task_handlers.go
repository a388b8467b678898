package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/dayplanner/internal/server/services"
)

// taskResponse is a task plus its computed deadline bucket.
type taskResponse struct {
	models.Task
	DueStatus models.DueStatus `json:"due_status"`
}

func taskResponses(ts []models.Task, now time.Time) []taskResponse {
	out := make([]taskResponse, len(ts))
	for i, t := range ts {
		out[i] = taskResponse{Task: t, DueStatus: t.DueStatusAt(now)}
	}
	return out
}

func (s *Server) owner(c *gin.Context) string {
	return s.session(c).Username
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

// handleListTasks returns the owner's tasks, optionally filtered and sorted:
// ?priority=High&priority=Low&completion=done|not_done&sort=due|priority
func (s *Server) handleListTasks(c *gin.Context) {
	filter := services.ViewFilter{
		Completion: services.CompletionFilter(c.DefaultQuery("completion", string(services.CompletionAll))),
		SortBy:     services.SortKey(c.Query("sort")),
	}
	for _, p := range c.QueryArray("priority") {
		filter.Priorities = append(filter.Priorities, models.Priority(p))
	}

	ts, err := s.tasks.View(c.Request.Context(), s.owner(c), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": taskResponses(ts, time.Now())})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
		Due      string `json:"due"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := models.Task{
		Title:    req.Title,
		Priority: models.Priority(req.Priority),
		Due:      req.Due,
		Note:     req.Note,
	}
	created, err := s.tasks.Add(c.Request.Context(), s.owner(c), task)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskResponse{Task: *created, DueStatus: created.DueStatusAt(time.Now())})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := s.tasks.Delete(c.Request.Context(), s.owner(c), id); err != nil {
		s.writeError(c, err)
		return
	}

	// A reminder for a deleted task must never fire.
	s.reminders.Cancel(s.owner(c), id)

	c.Status(http.StatusNoContent)
}

func (s *Server) handlePatchTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req struct {
		Completed *bool   `json:"completed"`
		Note      *string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Completed == nil && req.Note == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := s.tasks.Update(c.Request.Context(), s.owner(c), id, req.Completed, req.Note); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// handleMergeView writes an edited grid snapshot back: only completion and
// note change, rows missing from the snapshot are untouched.
func (s *Server) handleMergeView(c *gin.Context) {
	var req struct {
		Edits []struct {
			ID        int64  `json:"id"`
			Completed bool   `json:"completed"`
			Note      string `json:"note"`
		} `json:"edits"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edits := make([]tasks.ViewEdit, len(req.Edits))
	for i, e := range req.Edits {
		edits[i] = tasks.ViewEdit{ID: e.ID, Completed: e.Completed, Note: e.Note}
	}

	if err := s.tasks.MergeView(c.Request.Context(), s.owner(c), edits); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"merged": len(edits)})
}

// handleExport streams the collection as csv (default) or xlsx. With
// ?upload=true the workbook goes to object storage and the response carries
// a short-lived download link instead.
func (s *Server) handleExport(c *gin.Context) {
	owner := s.owner(c)

	if c.Query("upload") == "true" {
		if !s.export.UploadEnabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
			return
		}
		url, err := s.export.UploadXLSX(c.Request.Context(), owner)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, err := s.export.ExportXLSX(c.Request.Context(), owner)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="tasks.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := s.export.ExportCSV(c.Request.Context(), owner)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format"})
	}
}

// handleScheduleReminder arms a reminder for a task. The instant uses the
// task due layout or RFC 3339; instants in the past are rejected.
func (s *Server) handleScheduleReminder(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req struct {
		At string `json:"at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at, err := parseReminderTime(req.At)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reminder time"})
		return
	}

	owner := s.owner(c)

	// The task must exist; reminders for unknown IDs are refused.
	ts, err := s.tasks.List(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var task *models.Task
	for i := range ts {
		if ts[i].ID == id {
			task = &ts[i]
			break
		}
	}
	if task == nil {
		s.writeError(c, common.ErrNotFound)
		return
	}

	if err := s.reminders.Schedule(c.Request.Context(), owner, task, at); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": id, "at": at.Format(time.RFC3339)})
}

func parseReminderTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(models.DueLayout, s, time.Local)
}
