// Package game exposes the per-title knowledge and the Game façade tying
// plugin loading, metadata and sorting together.
package game

import (
	"fmt"
	"strings"

	"github.com/modsort/modsort/pkg/plugin"
)

// Type identifies one supported game. The set is closed.
type Type int

const (
	Morrowind Type = iota
	Oblivion
	Skyrim
	SkyrimSE
	SkyrimVR
	Fallout3
	FalloutNV
	Fallout4
	Fallout4VR
	Starfield
)

// String returns the canonical short name for the game type.
func (t Type) String() string {
	switch t {
	case Morrowind:
		return "morrowind"
	case Oblivion:
		return "oblivion"
	case Skyrim:
		return "skyrim"
	case SkyrimSE:
		return "skyrimse"
	case SkyrimVR:
		return "skyrimvr"
	case Fallout3:
		return "fallout3"
	case FalloutNV:
		return "falloutnv"
	case Fallout4:
		return "fallout4"
	case Fallout4VR:
		return "fallout4vr"
	case Starfield:
		return "starfield"
	default:
		return "unknown"
	}
}

// ParseType resolves a short name to a game type.
func ParseType(name string) (Type, error) {
	for _, t := range []Type{
		Morrowind, Oblivion, Skyrim, SkyrimSE, SkyrimVR,
		Fallout3, FalloutNV, Fallout4, Fallout4VR, Starfield,
	} {
		if strings.EqualFold(name, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown game type %q", name)
}

// MasterFile returns the game's own master plugin.
func (t Type) MasterFile() string {
	switch t {
	case Morrowind:
		return "Morrowind.esm"
	case Oblivion:
		return "Oblivion.esm"
	case Skyrim, SkyrimSE, SkyrimVR:
		return "Skyrim.esm"
	case Fallout3:
		return "Fallout3.esm"
	case FalloutNV:
		return "FalloutNV.esm"
	case Fallout4, Fallout4VR:
		return "Fallout4.esm"
	case Starfield:
		return "Starfield.esm"
	default:
		return ""
	}
}

// DataDirectory returns the plugin directory name under the game path.
func (t Type) DataDirectory() string {
	if t == Morrowind {
		return "Data Files"
	}
	return "Data"
}

// Format returns the plugin file layout the game uses.
func (t Type) Format() plugin.Format {
	switch t {
	case Morrowind:
		return plugin.FormatTES3
	case Oblivion, Fallout3, FalloutNV:
		return plugin.FormatTES4
	case Starfield:
		return plugin.FormatStarfield
	default:
		return plugin.FormatModern
	}
}

// HardcodedPlugins returns the plugins whose relative order the game
// itself mandates, first to last. Plugins from the list that are not
// installed are ignored by the sorter.
func (t Type) HardcodedPlugins() []string {
	switch t {
	case SkyrimSE, SkyrimVR:
		return []string{
			"Skyrim.esm",
			"Update.esm",
			"Dawnguard.esm",
			"HearthFires.esm",
			"Dragonborn.esm",
		}
	case Fallout4, Fallout4VR:
		return []string{
			"Fallout4.esm",
			"DLCRobot.esm",
			"DLCworkshop01.esm",
			"DLCCoast.esm",
			"DLCworkshop02.esm",
			"DLCworkshop03.esm",
			"DLCNukaWorld.esm",
			"DLCUltraHighResolution.esm",
		}
	case Starfield:
		return []string{
			"Starfield.esm",
			"Constellation.esm",
			"OldMars.esm",
			"SFBGS003.esm",
			"SFBGS004.esm",
			"SFBGS006.esm",
			"SFBGS007.esm",
			"SFBGS008.esm",
			"BlueprintShips-Starfield.esm",
		}
	default:
		master := t.MasterFile()
		if master == "" {
			return nil
		}
		return []string{master}
	}
}
