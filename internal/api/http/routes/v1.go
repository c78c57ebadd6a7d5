package routes

import (
	"github.com/gin-gonic/gin"

	editorhttp "github.com/smart-mermaid/go-mermaid-backend/internal/editor/http"
	editorservice "github.com/smart-mermaid/go-mermaid-backend/internal/editor/service"
	historyhttp "github.com/smart-mermaid/go-mermaid-backend/internal/history/http"
	historyservice "github.com/smart-mermaid/go-mermaid-backend/internal/history/service"
)

type V1Deps struct {
	Session *editorservice.Session
	History *historyservice.Manager
}

func RegisterV1(api gin.IRouter, dep V1Deps) {
	editorhttp.NewHandler(dep.Session).Register(api)
	historyhttp.NewHandler(dep.History).Register(api)
}
