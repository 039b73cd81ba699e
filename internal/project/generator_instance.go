package project

import "github.com/sonatalabs/dawcore/internal/ids"

// InstanceKind is the closed set of generator pool entry kinds (spec §3).
type InstanceKind int

const (
	InstancePlugin InstanceKind = iota
	InstanceSampler
	InstanceAudioInput
)

// GeneratorInstance is an entry in the generator pool: a plugin name (used
// to recreate the live generator.Generator via the registry), its
// parameter overrides, and an effects chain applied after it renders.
type GeneratorInstance struct {
	ID         ids.GeneratorID
	Name       string
	Kind       InstanceKind
	PluginName string // registry key, meaningful when Kind == InstancePlugin
	Parameters map[int]float64
	Effects    []EffectInstance
	Bypass     bool
}

// EffectInstance is one entry of a generator's effects chain.
type EffectInstance struct {
	Name       string
	Parameters map[int]float64
	Bypass     bool
}

// NewGeneratorInstance returns a pool entry seeded with a plugin's default
// parameters, as read from the live generator.Generator at creation time.
func NewGeneratorInstance(name, pluginName string, defaults map[int]float64) *GeneratorInstance {
	params := make(map[int]float64, len(defaults))
	for id, v := range defaults {
		params[id] = v
	}
	return &GeneratorInstance{
		ID:         ids.NewGeneratorID(),
		Name:       name,
		Kind:       InstancePlugin,
		PluginName: pluginName,
		Parameters: params,
	}
}

// Clone performs the copy-on-write duplication required before mutation.
func (g *GeneratorInstance) Clone() *GeneratorInstance {
	clone := *g
	clone.Parameters = make(map[int]float64, len(g.Parameters))
	for id, v := range g.Parameters {
		clone.Parameters[id] = v
	}
	clone.Effects = append([]EffectInstance(nil), g.Effects...)
	for i, e := range clone.Effects {
		params := make(map[int]float64, len(e.Parameters))
		for id, v := range e.Parameters {
			params[id] = v
		}
		clone.Effects[i].Parameters = params
	}
	return &clone
}

// SetParameter records a parameter override in the pool entry. It does not
// itself push the value to the live generator.Generator instance; callers
// apply it to both per spec §4.1's "add_generator" flow.
func (g *GeneratorInstance) SetParameter(id int, value float64) {
	g.Parameters[id] = value
}
