// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

// MetaType tags a metadata entry.
type MetaType uint32

// Metadata entry types. A NULL entry terminates the chain.
const (
	MetaTypeNull    MetaType = 0
	MetaTypeInteger MetaType = 1
	MetaTypeString  MetaType = 2
	MetaTypeBoolean MetaType = 3
)

// Metadata entry record layout: four 64-bit slots. The integer value is a
// signed 64-bit lane; the boolean reuses it.
const (
	metaTypeOffset   = 0
	metaIntOffset    = 8
	metaIdentOffset  = 16
	metaStringOffset = 24
	metaEntrySize    = 32
)

// Meta is a single metadata entry of a rule.
type Meta struct {
	// Type of the entry.
	Type MetaType `json:"type"`

	// Identifier is the metadata key.
	Identifier string `json:"identifier"`

	// Int holds the value of an INTEGER entry.
	Int int64 `json:"int,omitempty"`

	// Str holds the value of a STRING entry.
	Str string `json:"str,omitempty"`

	// Bool holds the value of a BOOLEAN entry.
	Bool bool `json:"bool,omitempty"`
}

// ParseMetadata decodes the metadata chain at the given image offset. The
// chain is an ordered sequence of fixed-size entries ended by a NULL entry,
// which is consumed but not returned.
func (yr *File) ParseMetadata(address uint64) ([]Meta, error) {
	var metas []Meta

	for i := uint64(0); ; i++ {
		base := address + i*metaEntrySize

		typ, err := yr.ReadUint32(base + metaTypeOffset)
		if err != nil {
			return nil, err
		}
		if MetaType(typ) == MetaTypeNull {
			return metas, nil
		}

		value, err := yr.ReadUint64(base + metaIntOffset)
		if err != nil {
			return nil, err
		}
		identPtr, err := yr.ReadUint32(base + metaIdentOffset)
		if err != nil {
			return nil, err
		}
		strPtr, err := yr.ReadUint32(base + metaStringOffset)
		if err != nil {
			return nil, err
		}

		m := Meta{Type: MetaType(typ)}
		if identPtr != 0 {
			m.Identifier, err = yr.getCString(uint64(identPtr))
			if err != nil {
				return nil, err
			}
		}

		switch m.Type {
		case MetaTypeInteger:
			m.Int = int64(value)
		case MetaTypeBoolean:
			m.Bool = value != 0
		case MetaTypeString:
			if strPtr != 0 {
				m.Str, err = yr.getCString(uint64(strPtr))
				if err != nil {
					return nil, err
				}
			}
		default:
			return nil, ErrBadMetaType
		}

		metas = append(metas, m)
	}
}
