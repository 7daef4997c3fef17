package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/middleware"
	"tutoring-service/internal/models"
)

// RegisterValidators adds the class schedule tags to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return classes.RegisterValidations(v)
}

func currentProfile(c *gin.Context) (models.Profile, bool) {
	profile, ok := middleware.ProfileFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return profile, ok
}

// respondError writes the mapped status. Only unexpected failures are logged.
func respondError(c *gin.Context, log zerolog.Logger, err error, fallback string) {
	status, msg := middleware.ErrorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
	}
	c.JSON(status, gin.H{"error": msg})
}
