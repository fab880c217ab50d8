package handlers

import (
	"fishball-groupbuy/internal/config"
	"fishball-groupbuy/internal/groupbuy"

	"go.uber.org/zap"
)

type Handler struct {
	Service *groupbuy.Service
	Logger  *zap.Logger
	Config  config.Config
}
