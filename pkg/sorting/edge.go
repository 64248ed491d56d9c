// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package sorting computes plugin load orders: it builds the group and
// plugin graphs, detects cycles, and linearises the result
// deterministically.
package sorting

// EdgeType identifies what kind of constraint an edge encodes. Lower
// values are higher priority: edges are inserted in strict tiers from
// Hardcoded down to TieBreak.
type EdgeType int

const (
	EdgeHardcoded EdgeType = iota
	EdgeMasterFlag
	EdgeMaster
	EdgeMasterlistRequirement
	EdgeMasterlistLoadAfter
	EdgeUserRequirement
	EdgeUserLoadAfter
	EdgeMasterlistGroup
	EdgeUserGroup
	EdgeRecordOverlap
	EdgeAssetOverlap
	EdgeTieBreak
)

// String returns the human-readable edge kind used in diagnostics.
func (t EdgeType) String() string {
	switch t {
	case EdgeHardcoded:
		return "Hardcoded"
	case EdgeMasterFlag:
		return "Master Flag"
	case EdgeMaster:
		return "Master"
	case EdgeMasterlistRequirement:
		return "Masterlist Requirement"
	case EdgeMasterlistLoadAfter:
		return "Masterlist Load After"
	case EdgeUserRequirement:
		return "User Requirement"
	case EdgeUserLoadAfter:
		return "User Load After"
	case EdgeMasterlistGroup:
		return "Masterlist Group"
	case EdgeUserGroup:
		return "User Group"
	case EdgeRecordOverlap:
		return "Record Overlap"
	case EdgeAssetOverlap:
		return "Asset Overlap"
	case EdgeTieBreak:
		return "Tie Break"
	default:
		return "Unknown"
	}
}

// IsUserDefined reports whether the edge kind originates in userlist
// metadata.
func (t EdgeType) IsUserDefined() bool {
	return t == EdgeUserRequirement || t == EdgeUserLoadAfter || t == EdgeUserGroup
}

// Vertex is one step of a path or cycle: a plugin or group name plus the
// kind of the edge leading to the next step. The edge kind of a path's
// final vertex is meaningless.
type Vertex struct {
	Name     string
	EdgeType EdgeType
}
