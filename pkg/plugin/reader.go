// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// Format selects the on-disk plugin layout, which varies across game
// generations.
type Format int

const (
	// FormatTES3 is the Morrowind layout: 16-byte record headers,
	// 32-bit subrecord sizes, no FormIDs.
	FormatTES3 Format = iota

	// FormatTES4 is the Oblivion-era layout (Oblivion, Fallout 3, New
	// Vegas): 20-byte record headers.
	FormatTES4

	// FormatModern is the Skyrim-and-later layout: 24-byte record
	// headers, light flag 0x200.
	FormatModern

	// FormatStarfield is the Starfield layout: 24-byte record headers,
	// light flag 0x100, update flag 0x200, blueprint flag 0x800.
	FormatStarfield
)

// Master-file flag, common to every format.
const flagMaster = 0x00000001

const (
	flagModernLight        = 0x00000200
	flagStarfieldLight     = 0x00000100
	flagStarfieldUpdate    = 0x00000200
	flagStarfieldBlueprint = 0x00000800
)

func (f Format) magic() string {
	if f == FormatTES3 {
		return "TES3"
	}
	return "TES4"
}

func (f Format) recordHeaderSize() int {
	switch f {
	case FormatTES3:
		return 16
	case FormatTES4:
		return 20
	default:
		return 24
	}
}

// ReadFile decodes the plugin at path. With headersOnly set, only the
// header record is decoded and the override sweep is skipped; the CRC is
// computed either way.
func ReadFile(path string, format Format, headersOnly bool) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plugin %q: %w", path, err)
	}

	name := filepath.Base(path)

	r := &Record{
		name:   name,
		crc:    crc32.ChecksumIEEE(data),
		hasCRC: true,
	}

	headerSize := format.recordHeaderSize()
	if len(data) < headerSize {
		return nil, NewInvalidPluginError(path, "file is too small for a header record")
	}
	if string(data[:4]) != format.magic() {
		return nil, NewInvalidPluginError(path, fmt.Sprintf("header record is not %s", format.magic()))
	}

	dataSize := int(binary.LittleEndian.Uint32(data[4:8]))
	var flags uint32
	if format == FormatTES3 {
		flags = binary.LittleEndian.Uint32(data[12:16])
	} else {
		flags = binary.LittleEndian.Uint32(data[8:12])
	}

	if headerSize+dataSize > len(data) {
		return nil, NewInvalidPluginError(path, "header record is truncated")
	}

	r.masters, err = parseHeaderSubrecords(data[headerSize:headerSize+dataSize], format)
	if err != nil {
		return nil, NewInvalidPluginError(path, err.Error())
	}

	r.isMaster = flags&flagMaster != 0
	switch format {
	case FormatModern:
		r.isLight = flags&flagModernLight != 0
	case FormatStarfield:
		r.isLight = flags&flagStarfieldLight != 0
		r.isUpdate = flags&flagStarfieldUpdate != 0
		r.isBlueprint = flags&flagStarfieldBlueprint != 0
	}

	// The extension overrides the header flags in the modern games.
	if format == FormatModern || format == FormatStarfield {
		if HasExtension(name, ".esm") {
			r.isMaster = true
		}
		if HasExtension(name, ".esl") {
			r.isMaster = true
			r.isLight = true
		}
	}

	if headersOnly || format == FormatTES3 {
		return r, nil
	}

	overrides, err := sweepOverrides(data[headerSize+dataSize:], format, len(r.masters))
	if err != nil {
		return nil, NewInvalidPluginError(path, err.Error())
	}
	r.overrides = overrides

	log.Trace().
		Str("plugin", name).
		Int("masters", len(r.masters)).
		Int("overrides", len(r.overrides)).
		Msg("Read plugin file")

	return r, nil
}

// parseHeaderSubrecords walks the header record's subrecords collecting
// MAST master references.
func parseHeaderSubrecords(data []byte, format Format) ([]string, error) {
	var masters []string

	subrecordHeaderSize := 6
	if format == FormatTES3 {
		subrecordHeaderSize = 8
	}

	pos := 0
	for pos+subrecordHeaderSize <= len(data) {
		kind := string(data[pos : pos+4])

		var size int
		if format == FormatTES3 {
			size = int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		} else {
			size = int(binary.LittleEndian.Uint16(data[pos+4 : pos+6]))
		}
		pos += subrecordHeaderSize

		if pos+size > len(data) {
			return nil, fmt.Errorf("subrecord %s is truncated", kind)
		}

		if kind == "MAST" {
			masters = append(masters, string(bytes.TrimRight(data[pos:pos+size], "\x00")))
		}
		pos += size
	}

	return masters, nil
}

// sweepOverrides scans the records following the header and collects the
// FormIDs whose mod index refers to one of the plugin's masters. Group
// headers are stepped over so nested records are visited.
func sweepOverrides(data []byte, format Format, masterCount int) ([]uint32, error) {
	headerSize := format.recordHeaderSize()
	seen := make(map[uint32]struct{})

	pos := 0
	for pos < len(data) {
		if pos+headerSize > len(data) {
			return nil, fmt.Errorf("record at offset %d is truncated", pos)
		}

		kind := string(data[pos : pos+4])
		if kind == "GRUP" {
			// A group's records follow its header contiguously.
			pos += headerSize
			continue
		}

		dataSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		formID := binary.LittleEndian.Uint32(data[pos+12 : pos+16])

		if formID>>24 < uint32(masterCount) {
			seen[formID] = struct{}{}
		}

		pos += headerSize + dataSize
	}

	overrides := make([]uint32, 0, len(seen))
	for id := range seen {
		overrides = append(overrides, id)
	}
	sort.Slice(overrides, func(i, j int) bool { return overrides[i] < overrides[j] })

	return overrides, nil
}
