package game

import (
	"image/color"

	"github.com/jakecoffman/cp"
)

// Group is the collision category an entity belongs to
type Group int

const (
	GroupPlayer Group = iota + 1
	GroupEnemy
	GroupEnvironment
)

// GroupConfig holds configuration for each collision group
type GroupConfig struct {
	Group Group
	Name  string
	Color color.NRGBA
}

var (
	// GroupConfigs holds configuration for each group
	GroupConfigs = map[Group]GroupConfig{
		GroupPlayer: {
			Group: GroupPlayer,
			Name:  "player",
			Color: color.NRGBA{0, 0, 0, 255},
		},
		GroupEnemy: {
			Group: GroupEnemy,
			Name:  "enemy",
			Color: color.NRGBA{0, 0, 0, 153},
		},
		GroupEnvironment: {
			Group: GroupEnvironment,
			Name:  "environment",
			Color: color.NRGBA{0, 0, 0, 255},
		},
	}
)

// GetGroupConfig returns configuration for a group
func GetGroupConfig(g Group) GroupConfig {
	if config, ok := GroupConfigs[g]; ok {
		return config
	}
	return GroupConfig{
		Group: g,
		Name:  "unknown",
		Color: color.NRGBA{255, 100, 0, 255},
	}
}

func (g Group) String() string {
	return GetGroupConfig(g).Name
}

// CollisionType is the physics collision type used to dispatch contact handlers
func (g Group) CollisionType() cp.CollisionType {
	return cp.CollisionType(g)
}

// contactPairs are the group pairs whose first contact is reported to the world
var contactPairs = [][2]Group{
	{GroupEnvironment, GroupEnemy},
	{GroupEnemy, GroupEnemy},
	{GroupPlayer, GroupEnemy},
}
