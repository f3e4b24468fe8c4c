package fx

import (
	"cubedraft/internal/chat"
	"cubedraft/internal/config"
	"cubedraft/internal/logger"
	"cubedraft/internal/repository"
	"cubedraft/internal/server"
	"cubedraft/internal/service"
	"cubedraft/internal/sheets"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideRowAPI(cfg *config.Config, log zerolog.Logger) sheets.RowAPI {
	return sheets.NewRetrying(sheets.NewClient(cfg), log)
}

func ProvideMessenger(c *chat.DiscordClient) chat.Messenger { return c }

func ProvideIdentity(c *chat.DiscordClient) chat.Identity { return c }

func ProvidePodSink(p *service.PodService) service.PodSink { return p }

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// collaborators
	fx.Provide(ProvideRowAPI),
	fx.Provide(chat.NewDiscordClient),
	fx.Provide(ProvideMessenger),
	fx.Provide(ProvideIdentity),
	// repos
	fx.Provide(repository.NewBracketRepository),
	fx.Provide(repository.NewPodLogRepository),
	fx.Provide(repository.NewMatchLogRepository),
	fx.Provide(repository.NewDirectoryRepository),
	// svc
	fx.Provide(service.NewDirectoryService),
	fx.Provide(service.NewBracketService),
	fx.Provide(service.NewPodService),
	fx.Provide(ProvidePodSink),
	fx.Provide(service.NewQueueService),
	fx.Provide(service.NewNotifyService),
	// server
	fx.Provide(server.NewDraftServer),
)
