package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ClubVote/internal/chain"
	"ClubVote/internal/repository"
	"ClubVote/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusFor 错误分类到 HTTP 状态码
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLineItemIndex),
		errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrCandidateMismatch),
		errors.Is(err, service.ErrDuplicateLineItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrApplicationDecided), errors.Is(err, chain.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, chain.ErrConnectionRejected), errors.Is(err, chain.ErrTransactionRejected):
		return http.StatusForbidden
	case errors.Is(err, service.ErrChainDisabled), errors.Is(err, chain.ErrWalletUnavailable),
		errors.Is(err, chain.ErrConfirmationAbandoned), errors.Is(err, chain.ErrClientClosed),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, chain.ErrTransactionFailed):
		return http.StatusBadGateway
	case errors.Is(err, chain.ErrConfirmationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := statusFor(err)
	entry := logger.WithError(err).WithFields(logrus.Fields{"op": op, "request_id": c.GetString(requestIDKey)})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	body := gin.H{"error": err.Error()}
	var ve *service.ValidationError
	if errors.As(err, &ve) && len(ve.Missing) > 0 {
		body["missing"] = ve.Missing
	}
	c.JSON(status, body)
}

// paramID 解析路径中的数字 id
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func paramIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return 0, false
	}
	return idx, true
}
