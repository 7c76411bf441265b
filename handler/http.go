package handler

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
)

// Route is where the completion gateway is mounted.
const Route = "/api/openai"

// NewRouter exposes h over plain HTTP for local runs. Requests are converted
// to proxy events so both paths share Handle.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Any(Route, h.serveGin)
	return r
}

func (h *Handler) serveGin(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	resp, err := h.Handle(c.Request.Context(), events.APIGatewayProxyRequest{
		HTTPMethod: c.Request.Method,
		Path:       c.Request.URL.Path,
		Headers:    headers,
		Body:       string(body),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}
