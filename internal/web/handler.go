package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartwaste/internal/models"
	"smartwaste/internal/rag"
)

const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeMissingCredential = 40001
	CodeInvalidCredential = 40101
	CodeQueryFailure      = 50201
	CodeIndexUnavailable  = 50301
)

type APIResponse struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type AskRequest struct {
	Credential string `json:"credential" form:"credential"`
	Question   string `json:"question" form:"question"`
}

// pageData is what page.html renders.
type pageData struct {
	*content
	Page     string
	Question string
	Prompt   string
	Result   *resultView
}

type resultView struct {
	Class   string
	Message string
	Answer  string
}

func (s *Server) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "page.html", pageData{
			content:  s.content,
			Page:     name,
			Question: s.defaultQuestion,
			Prompt:   models.MsgMissingCredential,
		})
	}
}

// AskForm handles the "Consultar" button of the EcoFriend page.
func (s *Server) AskForm(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	res := s.asker.Ask(c.Request.Context(), req.Credential, req.Question)

	status, _ := statusFor(res.Kind)
	if res.Kind == rag.KindMissingCredential {
		// a blank key is the panel's idle state, not a failed request
		status = http.StatusOK
	}
	c.HTML(status, "page.html", pageData{
		content:  s.content,
		Page:     "ecofriend",
		Question: req.Question,
		Prompt:   models.MsgMissingCredential,
		Result: &resultView{
			Class:   classFor(res.Kind),
			Message: res.Message(),
			Answer:  res.Answer(),
		},
	})
}

// AskJSON is the machine-readable form of AskForm.
func (s *Server) AskJSON(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Code:    CodeBadRequest,
			Message: "invalid request payload",
		})
		return
	}

	res := s.asker.Ask(c.Request.Context(), req.Credential, req.Question)

	status, code := statusFor(res.Kind)
	body := APIResponse{Code: code, Kind: res.Kind.String(), Message: res.Message()}
	if res.Kind == rag.KindAnswer {
		body.Data = res.Response
	}
	c.JSON(status, body)
}

func statusFor(k rag.Kind) (int, int) {
	switch k {
	case rag.KindAnswer:
		return http.StatusOK, CodeOK
	case rag.KindMissingCredential:
		return http.StatusBadRequest, CodeMissingCredential
	case rag.KindInvalidCredential:
		return http.StatusUnauthorized, CodeInvalidCredential
	case rag.KindIndexUnavailable:
		return http.StatusServiceUnavailable, CodeIndexUnavailable
	default:
		return http.StatusBadGateway, CodeQueryFailure
	}
}

func classFor(k rag.Kind) string {
	switch k {
	case rag.KindAnswer:
		return "success"
	case rag.KindMissingCredential:
		return "info"
	case rag.KindIndexUnavailable:
		return "warning"
	default:
		return "error"
	}
}
