package handlers

import (
	"recipe-aggregator/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為 ErrorResponse；debug 時附上原始錯誤
func RespondError(c *gin.Context, err error, debug bool) {
	status, resp := common.ToErrorResponse(err, debug)
	if status >= 500 {
		common.LogError("請求處理失敗",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// RespondBindError 請求體解析失敗
func RespondBindError(c *gin.Context, err error, debug bool) {
	resp := common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: common.ErrInvalidRequest.Message,
	}
	if debug {
		resp.Details = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(common.ErrInvalidRequest.Status, resp)
}
