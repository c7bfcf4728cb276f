package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"testmaker-service/internal/app"
	"testmaker-service/internal/auth"
	"testmaker-service/internal/domain"
)

// Handler exposes the REST API: open reads and curated listings, token-gated
// writes, and attempt resolution.
type Handler struct {
	entities *app.EntityService
	scorer   *app.Scorer
	users    app.UserStore
	tokens   *auth.TokenIssuer
}

func NewHandler(entities *app.EntityService, scorer *app.Scorer, users app.UserStore, tokens *auth.TokenIssuer) *Handler {
	return &Handler{entities: entities, scorer: scorer, users: users, tokens: tokens}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/token/auth", h.issueToken)

	api.GET("/quizzes", h.listQuizzes)
	api.GET("/quiz/:id", h.getQuiz)
	api.GET("/quiz/:id/questions", h.listQuestions)
	api.GET("/quiz/:id/results", h.listResults)
	api.GET("/question/:id", h.getQuestion)
	api.GET("/question/:id/answers", h.listAnswers)
	api.GET("/answer/:id", h.getAnswer)
	api.GET("/result/:id", h.getResult)
	api.POST("/quiz/:id/resolve", h.resolveResult)

	protected := api.Group("", h.requireAuth)
	protected.POST("/quiz", h.postQuiz)
	protected.PUT("/quiz", h.putQuiz)
	protected.DELETE("/quiz/:id", h.deleteQuiz)
	protected.POST("/question", h.postQuestion)
	protected.PUT("/question", h.putQuestion)
	protected.DELETE("/question/:id", h.deleteQuestion)
	protected.POST("/answer", h.postAnswer)
	protected.PUT("/answer", h.putAnswer)
	protected.DELETE("/answer/:id", h.deleteAnswer)
	protected.POST("/result", h.postResult)
	protected.PUT("/result", h.putResult)
	protected.DELETE("/result/:id", h.deleteResult)
}

type tokenRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token request"})
		return
	}
	user, err := h.users.GetUserByName(c.Request.Context(), req.UserName)
	if err != nil {
		// same response as a bad password, to avoid leaking user names
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

const identityKey = "identity"

func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
		return
	}
	identity, err := h.tokens.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func callerFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Identity{}
}

func (h *Handler) listQuizzes(c *gin.Context) {
	order := domain.QuizOrder(c.DefaultQuery("order", string(domain.QuizOrderLatest)))
	count, err := strconv.Atoi(c.DefaultQuery("count", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
		return
	}
	views, err := h.entities.ListQuizzes(c.Request.Context(), order, count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getQuiz(c *gin.Context) {
	view, err := h.entities.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) postQuiz(c *gin.Context) {
	var view domain.QuizView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz payload"})
		return
	}
	created, err := h.entities.PostQuiz(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) putQuiz(c *gin.Context) {
	var view domain.QuizView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz payload"})
		return
	}
	updated, err := h.entities.PutQuiz(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteQuiz(c *gin.Context) {
	deleted, err := h.entities.DeleteQuiz(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *Handler) getQuestion(c *gin.Context) {
	view, err := h.entities.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listQuestions(c *gin.Context) {
	views, err := h.entities.ListQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) postQuestion(c *gin.Context) {
	var view domain.QuestionView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question payload"})
		return
	}
	created, err := h.entities.PostQuestion(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) putQuestion(c *gin.Context) {
	var view domain.QuestionView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question payload"})
		return
	}
	updated, err := h.entities.PutQuestion(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	deleted, err := h.entities.DeleteQuestion(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *Handler) getAnswer(c *gin.Context) {
	view, err := h.entities.GetAnswer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listAnswers(c *gin.Context) {
	views, err := h.entities.ListAnswers(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) postAnswer(c *gin.Context) {
	var view domain.AnswerView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer payload"})
		return
	}
	created, err := h.entities.PostAnswer(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) putAnswer(c *gin.Context) {
	var view domain.AnswerView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer payload"})
		return
	}
	updated, err := h.entities.PutAnswer(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteAnswer(c *gin.Context) {
	deleted, err := h.entities.DeleteAnswer(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *Handler) getResult(c *gin.Context) {
	view, err := h.entities.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listResults(c *gin.Context) {
	views, err := h.entities.ListResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) postResult(c *gin.Context) {
	var view domain.ResultView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result payload"})
		return
	}
	created, err := h.entities.PostResult(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) putResult(c *gin.Context) {
	var view domain.ResultView
	if err := c.ShouldBindJSON(&view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result payload"})
		return
	}
	updated, err := h.entities.PutResult(c.Request.Context(), callerFrom(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteResult(c *gin.Context) {
	deleted, err := h.entities.DeleteResult(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

type resolveRequest struct {
	AnswerIDs []string `json:"answerIds"`
}

func (h *Handler) resolveResult(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resolve payload"})
		return
	}
	resolution, err := h.scorer.Resolve(c.Request.Context(), c.Param("id"), req.AnswerIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}

// writeError maps the domain error taxonomy to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPayload), errors.Is(err, domain.ErrInvalidReference):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnresolved):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
