package meta

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindease/backend/internal/config"
	"github.com/zhouzirui/mindease/backend/pkg/utils"
)

// Handler 页面元信息的HTTP处理器
type Handler struct {
	page config.PageConfig
}

// New 创建元信息处理器
func New(page config.PageConfig) *Handler {
	return &Handler{page: page}
}

// RegisterRoutes 注册元信息相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/meta", h.handleMeta)
}

// handleMeta 返回标题、图标与免责声明
func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.page)
}
