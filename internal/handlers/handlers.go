package handlers

import (
	"time"

	"dlna-server/internal/cache"
	"dlna-server/internal/dlna"
	"dlna-server/internal/media"
	"dlna-server/internal/startup"
	"dlna-server/internal/streaming"
	"dlna-server/internal/thumbs"
)

// Handlers serves the device's HTTP surface.
type Handlers struct {
	tree       media.Tree
	content    *dlna.Service
	transcodes *cache.Cache
	thumbGen   *thumbs.Generator
	device     dlna.Device
	streamCfg  streaming.TimeoutWriterConfig
	started    time.Time
}

func New(tree media.Tree, transcodes *cache.Cache, thumbGen *thumbs.Generator, config *startup.Config) *Handlers {
	return &Handlers{
		tree:       tree,
		content:    dlna.NewService(tree, config.URI),
		transcodes: transcodes,
		thumbGen:   thumbGen,
		device: dlna.Device{
			Name:    config.Name,
			UUID:    config.UUID,
			Version: startup.Version,
		},
		streamCfg: streaming.DefaultTimeoutWriterConfig(),
		started:   time.Now(),
	}
}
