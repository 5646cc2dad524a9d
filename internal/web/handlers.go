package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/logging"
	"github.com/Attamusc/epic-digest/internal/pipeline"
)

const maxItemSize = 1 << 20 // 1MB

// formView is the data rendered by index.html
type formView struct {
	EpicID    string
	PageTitle string
	Error     string
	Result    *pipeline.Result
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", formView{})
}

func (s *Server) handleSubmit(c *gin.Context) {
	view := formView{
		EpicID:    strings.TrimSpace(c.PostForm("epic_id")),
		PageTitle: strings.TrimSpace(c.PostForm("page_title")),
	}

	if view.EpicID == "" || view.PageTitle == "" {
		view.Error = "Both an epic ID and a page title are required."
		c.HTML(http.StatusBadRequest, "index.html", view)
		return
	}

	ctx := c.Request.Context()
	result, err := s.generator.Run(ctx, pipeline.Request{
		EpicKey:   view.EpicID,
		PageTitle: view.PageTitle,
	})
	if err != nil {
		logging.FromContext(ctx).Error("Page generation failed",
			"epic", view.EpicID, "stage", pipeline.FailedStage(err), "error", err)

		view.Error = "Could not create the page: " + err.Error()
		status := http.StatusBadGateway
		if pipeline.FailedStage(err) == pipeline.StageInput {
			status = http.StatusBadRequest
		}
		c.HTML(status, "index.html", view)
		return
	}

	view.Result = result
	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleHello(c *gin.Context) {
	name := c.DefaultQuery("name", "World")
	c.JSON(http.StatusOK, gin.H{"message": "Hello, " + name + "!"})
}

func (s *Server) handleCreateItem(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxItemSize)

	var item map[string]any
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object: " + err.Error()})
		return
	}
	// null decodes into a nil map without error
	if item == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "item": item})
}

func (s *Server) handleListIssues(c *gin.Context) {
	projectKey, ok := requireQuery(c, "project_key")
	if !ok {
		return
	}

	body, err := s.tracker.SearchProject(c.Request.Context(), projectKey)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) handleCreateIssue(c *gin.Context) {
	projectKey, ok := requireQuery(c, "project_key")
	if !ok {
		return
	}
	summary, ok := requireQuery(c, "summary")
	if !ok {
		return
	}

	body, err := s.tracker.CreateIssue(c.Request.Context(), jira.NewIssue{
		ProjectKey:  projectKey,
		Summary:     summary,
		Description: c.Query("description"),
		IssueType:   c.DefaultQuery("issue_type", jira.DefaultIssueType),
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

func (s *Server) handleListProjects(c *gin.Context) {
	body, err := s.tracker.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// requireQuery writes a 400 and returns false when the parameter is absent
func requireQuery(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " parameter required"})
		return "", false
	}
	return value, true
}
