package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/logging"
	"tutoring-service/internal/models"
	"tutoring-service/internal/schedule"
)

type ScheduleHandler struct {
	svc *classes.Service
	now func() time.Time
	log zerolog.Logger
}

func NewScheduleHandler(svc *classes.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, now: time.Now, log: logging.With("schedule")}
}

type todayEntry struct {
	models.TutorClass
	StartsAt string `json:"starts_at"`
}

// Month lays the caller's classes out on the month given by ?month=YYYY-MM,
// defaulting to the current month.
func (h *ScheduleHandler) Month(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	month, err := schedule.ParseMonth(c.Query("month"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.svc.ClassesForProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, h.log, err, "failed to load schedule")
		return
	}
	c.JSON(http.StatusOK, schedule.Month(month, list))
}

// Today lists the caller's classes meeting today with a display start time.
func (h *ScheduleHandler) Today(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	list, err := h.svc.ClassesForProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, h.log, err, "failed to load schedule")
		return
	}

	today := schedule.Today(list, h.now())
	entries := make([]todayEntry, 0, len(today))
	for _, class := range today {
		entries = append(entries, todayEntry{TutorClass: class, StartsAt: schedule.FormatClock(class.StartTime)})
	}
	c.JSON(http.StatusOK, gin.H{"classes": entries})
}

// Stats returns the caller's dashboard counters.
func (h *ScheduleHandler) Stats(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), profile)
	if err != nil {
		respondError(c, h.log, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
