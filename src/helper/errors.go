package helper

import (
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"

	"go.uber.org/zap"
)

var commonEventMessage string = "events handler error"

func EventHandlerErrorHandler(err error) {
	logger.SInfo(commonEventMessage,
		zap.Error(err),
		zap.Uint32("type", custerror.CodeOf(err)))
}
