package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ovpnsync/internal/server/api/response"
	"ovpnsync/internal/types"
	"ovpnsync/internal/version"
)

// StatusProvider exposes the sync loop state
type StatusProvider interface {
	Status() types.Status
}

// API represents the API
type API struct {
	status StatusProvider
	logger *zap.Logger
}

// NewAPI creates new API
func NewAPI(status StatusProvider, logger *zap.Logger) *API {
	return &API{
		status: status,
		logger: logger,
	}
}

// RegisterRoutes registers API routes
func (api *API) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/status", api.getStatus)
	r.GET("/version", api.getVersion)
}

// getStatus returns the last cycle outcome and the next check time
func (api *API) getStatus(c *gin.Context) {
	response.New(c, api.logger).Success(api.status.Status())
}

func (api *API) getVersion(c *gin.Context) {
	response.New(c, api.logger).Success(version.GetInfo())
}
