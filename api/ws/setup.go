package ws

import (
	"context"
	"net/http"

	"github.com/hafsabajwa/chatApp/internal/hub"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

type Config struct {
	Hub     *hub.Hub
	RootCtx context.Context
}

func SetupRoutes(cfg Config) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("ws")
	mux.HandleFunc("/ws", HandleRoom(cfg.Hub, log))
	return mux
}
