package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/services"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

const maxImportBytes = 2 << 20

type directorSignIn struct {
	PIN string `json:"pin"`
}

type eventRequest struct {
	model.Event
	Repeat string `json:"repeat"`
}

type decisionRequest struct {
	Status model.AbsenceStatus `json:"status"`
	Note   string              `json:"note"`
}

// POST /api/session/student
func (s *Server) signInStudent(c *gin.Context) {
	var req services.StudentSignIn
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	session, err := s.portal.SignInStudent(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// POST /api/session/director
func (s *Server) signInDirector(c *gin.Context) {
	var req directorSignIn
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	session, err := s.portal.SignInDirector(c.Request.Context(), req.PIN)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GET /api/session
func (s *Server) currentSession(c *gin.Context) {
	session, ok := s.portal.Sessions().Lookup(c.GetString(ctxToken))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"role": model.RoleGuest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": session.Role, "name": session.Name, "expiresAt": session.ExpiresAt})
}

// DELETE /api/session
func (s *Server) signOut(c *gin.Context) {
	if err := s.portal.SignOut(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		s.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/events?q=
func (s *Server) listEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.portal.SearchEvents(c.Query("q")))
}

// POST /api/events
func (s *Server) createEvents(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := s.portal.CreateEvents(c.Request.Context(), actorFrom(c), req.Event, req.Repeat)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/events/:id
func (s *Server) updateEvent(c *gin.Context) {
	var event model.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	event.ID = c.Param("id")
	updated, err := s.portal.UpdateEvent(c.Request.Context(), actorFrom(c), event)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/events/:id
func (s *Server) deleteEvent(c *gin.Context) {
	if err := s.portal.DeleteEvent(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/events/:id/absences
func (s *Server) submitAbsence(c *gin.Context) {
	var req store.AbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.EventID = c.Param("id")
	result, err := s.portal.SubmitAbsence(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/weekly?date=
func (s *Server) weekly(c *gin.Context) {
	week, err := s.portal.Weekly(c.Query("date"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

// GET /api/calendar.ics
func (s *Server) calendarFeed(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.portal.ExportCalendar(&buf); err != nil {
		s.respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="marching-knights.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// GET /api/absences?status=&section=
func (s *Server) listAbsences(c *gin.Context) {
	filter := store.AbsenceFilter{Section: c.Query("section")}
	if status := c.Query("status"); status != "" && !strings.EqualFold(status, "All") {
		filter.Status = model.AbsenceStatus(status)
		if !filter.Status.IsValid() {
			badRequest(c, "unknown status "+status)
			return
		}
	}
	c.JSON(http.StatusOK, s.portal.ListAbsences(actorFrom(c), filter))
}

// POST /api/absences/:id/cancel
func (s *Server) cancelAbsence(c *gin.Context) {
	result, err := s.portal.CancelAbsence(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/absences/:id/decision
func (s *Server) decideAbsence(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := s.portal.DecideAbsence(c.Request.Context(), actorFrom(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/roster
func (s *Server) listRoster(c *gin.Context) {
	c.JSON(http.StatusOK, s.portal.Store().Students())
}

// GET /api/roster/sections
func (s *Server) listSections(c *gin.Context) {
	c.JSON(http.StatusOK, s.portal.Store().Sections())
}

// GET /api/roster/template
func (s *Server) rosterTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="roster_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(services.RosterTemplate()))
}

// POST /api/roster/import?mode=preview|append|replace[&source=sheet]
// The request body is the CSV text.
func (s *Server) importRoster(c *gin.Context) {
	mode := services.ImportMode(c.DefaultQuery("mode", string(services.ImportPreview)))
	ctx := c.Request.Context()

	if c.Query("source") == "sheet" {
		result, err := s.portal.ImportRosterSheet(ctx, actorFrom(c), mode)
		if err != nil {
			s.respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		badRequest(c, "failed to read CSV body")
		return
	}
	result, err := s.portal.ImportRoster(ctx, actorFrom(c), string(body), mode)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/settings
func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.portal.Settings(actorFrom(c))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PUT /api/settings
func (s *Server) saveSettings(c *gin.Context) {
	var settings model.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	saved, err := s.portal.SaveSettings(c.Request.Context(), actorFrom(c), settings)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// POST /api/settings/ping
func (s *Server) testConnection(c *gin.Context) {
	reply, err := s.portal.TestConnection(c.Request.Context(), actorFrom(c))
	if err != nil {
		if status := statusFor(err); status == http.StatusInternalServerError {
			// Network failures reaching the proxy are upstream problems
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "reply": reply})
}

// POST /api/reset
func (s *Server) resetDemo(c *gin.Context) {
	if err := s.portal.ResetDemo(c.Request.Context(), actorFrom(c)); err != nil {
		s.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var errSyncNotWired = errors.New("sync outbox is not running")

// GET /api/sync/outbox
func (s *Server) listOutbox(c *gin.Context) {
	if s.outbox == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errSyncNotWired.Error()})
		return
	}
	c.JSON(http.StatusOK, s.outbox.Entries())
}

// POST /api/sync/outbox/:id/retry
func (s *Server) retryOutbox(c *gin.Context) {
	if s.outbox == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errSyncNotWired.Error()})
		return
	}
	entry, err := s.outbox.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
