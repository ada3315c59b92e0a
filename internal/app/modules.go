package app

import (
	"github.com/vk/plugflow/internal/registry"
	"github.com/vk/plugflow/modules/curve"
	"github.com/vk/plugflow/modules/cylinder"
	"github.com/vk/plugflow/modules/lerp"
	"github.com/vk/plugflow/modules/matrix"
	"github.com/vk/plugflow/modules/sum"
)

// coreModules is the definitive list of all modules that are compiled into
// the plugflow binary.
var coreModules = []registry.Module{
	&cylinder.Module{},
	&lerp.Module{},
	&sum.Module{},
	&curve.Module{},
	&matrix.Module{},
}
