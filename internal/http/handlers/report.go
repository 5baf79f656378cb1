package handlers

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/http/response"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/services"
)

//go:embed templates/report.html
var reportHTML string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("2 January 2006 15:04 MST") },
}).Parse(reportHTML))

type reportPage struct {
	Session     *types.Session
	Report      *types.Report
	GeneratedAt time.Time
}

type ReportHandler struct {
	sessions services.SessionService
}

func NewReportHandler(sessions services.SessionService) *ReportHandler {
	return &ReportHandler{sessions: sessions}
}

// GET /api/report/:sessionId
func (h *ReportHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")
	view, err := h.sessions.Resume(dbctx.Context{Ctx: ctx}, ctxutil.OwnerID(ctx), sessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if view.Report == nil {
		response.RespondError(c, http.StatusBadRequest, "report_not_available", errors.New("report not available"))
		return
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, reportPage{Session: view.Session, Report: view.Report, GeneratedAt: time.Now()}); err != nil {
		response.RespondAPIError(c, fmt.Errorf("render report: %w", err))
		return
	}
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="tek-report-%s.html"`, short))
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
