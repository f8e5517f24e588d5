package server

import (
	"errors"
	"net/http"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/protocol"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrDatasetNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, protocol.ErrMalformedRequest),
		errors.Is(err, protocol.ErrUnknownType),
		errors.Is(err, engine.ErrInvalidDataset),
		errors.Is(err, engine.ErrUnknownZone),
		errors.Is(err, engine.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownDish):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInverseUnavailable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) respond(c *gin.Context, resp protocol.Response, err error) {
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"type": protocol.TypeError, "message": err.Error()})
		return
	}
	if resp.Type == protocol.TypeError {
		c.JSON(statusFor(resp.Err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) message(msgType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"type": protocol.TypeError, "message": "invalid request body"})
			return
		}
		resp, err := s.submit(c.Request.Context(), msgType, payload)
		s.respond(c, resp, err)
	}
}

func (s *Server) zones(c *gin.Context) {
	resp, err := s.submit(c.Request.Context(), protocol.TypeZones, nil)
	s.respond(c, resp, err)
}

func (s *Server) health(c *gin.Context) {
	ds := s.dataset.Load()
	if ds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "waiting for dataset"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dishes": len(ds.Dishes), "zones": len(ds.Zones)})
}
