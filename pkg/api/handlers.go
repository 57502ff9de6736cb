package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirage-project/mirage/pkg/models"
)

// queryRequest is the POST /api/v1/query body. EnableHumanLoop defaults
// to true when omitted.
type queryRequest struct {
	Query           string `json:"query"`
	TargetLanguage  string `json:"target_language"`
	EnableHumanLoop *bool  `json:"enable_human_loop"`
	RequestID       string `json:"request_id"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	target, err := models.ParseLanguage(req.TargetLanguage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	humanLoop := true
	if req.EnableHumanLoop != nil {
		humanLoop = *req.EnableHumanLoop
	}

	q := models.Query{
		Text:            req.Query,
		TargetLanguage:  target,
		EnableHumanLoop: humanLoop,
		RequestID:       req.RequestID,
	}

	resp, err := s.service.ProcessQuery(c.Request.Context(), q)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// decisionRequest is the POST /api/v1/validations/:id/decision body.
type decisionRequest struct {
	Decision      string `json:"decision"`
	ModifiedText  string `json:"modified_text"`
	ReviewerNotes string `json:"reviewer_notes"`
}

func (s *Server) handleSubmitDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	vr, err := s.service.SubmitHumanDecision(c.Param("id"),
		models.Decision(req.Decision), req.ModifiedText, req.ReviewerNotes)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vr)
}

func (s *Server) handleGetValidation(c *gin.Context) {
	vr, err := s.service.GetValidation(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vr)
}

func (s *Server) handleValidationResult(c *gin.Context) {
	resp, err := s.service.ValidationResult(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleValidationQueue(c *gin.Context) {
	queue := s.service.GetValidationQueue()
	c.JSON(http.StatusOK, gin.H{
		"pending": queue,
		"count":   len(queue),
	})
}

func (s *Server) handleValidationStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.GetValidationStatistics())
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.GetStatistics())
}

func (s *Server) handleClearCache(c *gin.Context) {
	s.service.ClearCache()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	h := s.service.Health()
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, h)
}
