// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package plugin models installed game plugins: the runtime view the
// sorting core consumes, and a reader for the on-disk plugin format.
package plugin

import "strings"

// Plugin is the runtime view of one installed plugin. Implementations
// must treat filenames as case-insensitive identity.
type Plugin interface {
	// Name returns the plugin's filename.
	Name() string

	// IsMaster reports whether the plugin is flagged as a master file.
	IsMaster() bool

	// IsLightPlugin reports whether the plugin occupies the light
	// address space.
	IsLightPlugin() bool

	// IsBlueprintPlugin reports whether the plugin is a blueprint
	// master, which loads last among masters.
	IsBlueprintPlugin() bool

	// IsUpdatePlugin reports whether the plugin carries only overrides
	// and no new records.
	IsUpdatePlugin() bool

	// Masters returns the filenames of the plugin's declared masters,
	// in declaration order.
	Masters() []string

	// CRC returns the CRC-32 of the plugin file, and whether one is
	// known.
	CRC() (uint32, bool)

	// OverrideRecords returns the FormIDs of records the plugin
	// overrides from its masters.
	OverrideRecords() []uint32

	// Assets returns hashes of the loose asset paths the plugin ships.
	Assets() []uint64
}

// Record is the concrete Plugin produced by the reader.
type Record struct {
	name        string
	masters     []string
	isMaster    bool
	isLight     bool
	isUpdate    bool
	isBlueprint bool
	crc         uint32
	hasCRC      bool
	overrides   []uint32
	assets      []uint64
}

// RecordParams collects the fields of a Record for construction outside
// the reader, e.g. by an alternative plugin oracle.
type RecordParams struct {
	Name        string
	Masters     []string
	IsMaster    bool
	IsLight     bool
	IsUpdate    bool
	IsBlueprint bool
	CRC         uint32
	HasCRC      bool
	Overrides   []uint32
	Assets      []uint64
}

// NewRecord builds a Record from explicit parameters.
func NewRecord(p RecordParams) *Record {
	return &Record{
		name:        p.Name,
		masters:     p.Masters,
		isMaster:    p.IsMaster,
		isLight:     p.IsLight,
		isUpdate:    p.IsUpdate,
		isBlueprint: p.IsBlueprint,
		crc:         p.CRC,
		hasCRC:      p.HasCRC,
		overrides:   p.Overrides,
		assets:      p.Assets,
	}
}

// Name returns the plugin's filename.
func (r *Record) Name() string { return r.name }

// IsMaster reports whether the plugin is flagged as a master file.
func (r *Record) IsMaster() bool { return r.isMaster }

// IsLightPlugin reports whether the plugin occupies the light address
// space.
func (r *Record) IsLightPlugin() bool { return r.isLight }

// IsBlueprintPlugin reports whether the plugin is a blueprint master.
func (r *Record) IsBlueprintPlugin() bool { return r.isBlueprint }

// IsUpdatePlugin reports whether the plugin carries only overrides.
func (r *Record) IsUpdatePlugin() bool { return r.isUpdate }

// Masters returns the plugin's declared masters in declaration order.
func (r *Record) Masters() []string {
	masters := make([]string, len(r.masters))
	copy(masters, r.masters)
	return masters
}

// CRC returns the CRC-32 of the plugin file, and whether one is known.
func (r *Record) CRC() (uint32, bool) { return r.crc, r.hasCRC }

// OverrideRecords returns the FormIDs of overridden records.
func (r *Record) OverrideRecords() []uint32 {
	overrides := make([]uint32, len(r.overrides))
	copy(overrides, r.overrides)
	return overrides
}

// Assets returns hashes of the plugin's loose asset paths.
func (r *Record) Assets() []uint64 {
	assets := make([]uint64, len(r.assets))
	copy(assets, r.assets)
	return assets
}

// HasExtension reports whether the filename carries the given extension,
// compared case-insensitively.
func HasExtension(name, ext string) bool {
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}
