package app

import (
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/modules/backtest_model"
	"github.com/vk/forecastgrid/modules/clean_data"
	"github.com/vk/forecastgrid/modules/feature_engineering"
	"github.com/vk/forecastgrid/modules/ingest_data"
	"github.com/vk/forecastgrid/modules/publish_artifact"
	"github.com/vk/forecastgrid/modules/split_data"
	"github.com/vk/forecastgrid/modules/train_model"
)

// coreModules is the definitive list of all components that are compiled
// into the forecastgrid binary.
var coreModules = []registry.Module{
	&ingest_data.Module{},
	&clean_data.Module{},
	&split_data.Module{},
	&feature_engineering.Module{},
	&train_model.Module{},
	&backtest_model.Module{},
	&publish_artifact.Module{},
}
