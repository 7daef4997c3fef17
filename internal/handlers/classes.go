package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/logging"
	"tutoring-service/internal/middleware"
	"tutoring-service/internal/models"
	"tutoring-service/internal/telemetry"
	"tutoring-service/internal/video"
)

// ClassHandler manages recurring class endpoints.
type ClassHandler struct {
	svc   *classes.Service
	calls *video.Registry
	audit *telemetry.AuditEmitter
	log   zerolog.Logger
}

func NewClassHandler(svc *classes.Service, calls *video.Registry, audit *telemetry.AuditEmitter) *ClassHandler {
	return &ClassHandler{svc: svc, calls: calls, audit: audit, log: logging.With("classes")}
}

// CreateClass provisions a video room and stores a new class for the tutor.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}

	var req models.NewClass
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Title = strings.TrimSpace(req.Title)

	class, err := h.svc.CreateClass(c.Request.Context(), profile, req)
	if err != nil {
		respondError(c, h.log, err, "failed to create class")
		return
	}

	h.audit.Emit(c.Request.Context(), auditRecord(c, "class.created", class.ID))
	c.JSON(http.StatusCreated, class)
}

// Browse lists active classes. Query: search, subject, grade, price.
func (h *ClassHandler) Browse(c *gin.Context) {
	if _, ok := currentProfile(c); !ok {
		return
	}

	filter := classes.Filter{
		Search:  c.Query("search"),
		Subject: c.Query("subject"),
	}
	if raw := c.Query("grade"); raw != "" {
		grade, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grade"})
			return
		}
		filter.Grade = grade
	}
	band, err := classes.ParsePriceBand(c.Query("price"))
	if err != nil {
		respondError(c, h.log, err, "invalid price band")
		return
	}
	filter.Price = band

	list, err := h.svc.Browse(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, "failed to load classes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

// Mine returns the tutor's own classes or the student's enrolled ones.
func (h *ClassHandler) Mine(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	list, err := h.svc.ClassesForProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, h.log, err, "failed to load classes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

func (h *ClassHandler) Subscribe(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	classID := c.Param("class_id")

	enrollment, err := h.svc.Subscribe(c.Request.Context(), profile, classID)
	if err != nil {
		respondError(c, h.log, err, "failed to subscribe")
		return
	}

	h.audit.Emit(c.Request.Context(), auditRecord(c, "class.subscribed", classID))
	c.JSON(http.StatusCreated, enrollment)
}

func (h *ClassHandler) Students(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	students, err := h.svc.Students(c.Request.Context(), profile, c.Param("class_id"))
	if err != nil {
		respondError(c, h.log, err, "failed to load students")
		return
	}
	if students == nil {
		students = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// Join returns the meeting link and the initial call state for the caller.
func (h *ClassHandler) Join(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	classID := c.Param("class_id")

	link, err := h.svc.JoinLink(c.Request.Context(), profile, classID)
	if err != nil {
		respondError(c, h.log, err, "failed to load class")
		return
	}

	call, err := video.NewCall(link, c.Query("title"), video.Participant{ID: profile.ID, Name: profile.FullName})
	if err != nil {
		respondError(c, h.log, err, "failed to prepare call")
		return
	}
	h.calls.Start(classID, profile.ID, call)

	c.JSON(http.StatusOK, gin.H{"url": link, "call": call.Snapshot()})
}

// CallState returns the caller's current call in the class.
func (h *ClassHandler) CallState(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}
	call, err := h.calls.Get(c.Param("class_id"), profile.ID)
	if err != nil {
		respondError(c, h.log, err, "failed to load call")
		return
	}
	c.JSON(http.StatusOK, call.Snapshot())
}

// CallEvent applies an event the client's video SDK reported and returns the
// updated call. Rejected events answer with the error and the unchanged call.
func (h *ClassHandler) CallEvent(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}

	var ev video.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.calls.Apply(c.Param("class_id"), profile.ID, ev)
	if errors.Is(err, video.ErrNoCall) {
		respondError(c, h.log, err, "failed to load call")
		return
	}
	if err != nil {
		status, msg := middleware.ErrorStatus(err, "failed to apply call event")
		c.JSON(status, gin.H{"error": msg, "call": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}
