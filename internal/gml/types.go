// Package gml models the GameMaker-language bytecode consumed by the decompiler:
// instructions, code entries and the symbol tables that name their operands.
package gml

import "fmt"

// DataType is the operand type tag carried by typed instructions.
type DataType uint8

const (
	TypeDouble DataType = iota
	TypeFloat
	TypeInt32
	TypeInt64
	TypeBoolean
	TypeVariable
	TypeString
	TypeInstance
	TypeDelete
	TypeUndefined
	TypeUnsignedInt
	TypeInt16
)

var dataTypeSuffix = [...]string{
	TypeDouble:      "d",
	TypeFloat:       "f",
	TypeInt32:       "i",
	TypeInt64:       "l",
	TypeBoolean:     "b",
	TypeVariable:    "v",
	TypeString:      "s",
	TypeInstance:    "inst",
	TypeDelete:      "del",
	TypeUndefined:   "u",
	TypeUnsignedInt: "ui",
	TypeInt16:       "e",
}

// String returns the assembler suffix of the type ("i", "v", ...).
func (t DataType) String() string {
	if int(t) < len(dataTypeSuffix) {
		return dataTypeSuffix[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// IsInteger reports whether t is one of the integer tags.
func (t DataType) IsInteger() bool {
	return t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for i, suffix := range dataTypeSuffix {
		if suffix == s {
			return DataType(i), nil
		}
	}
	return 0, fmt.Errorf("gml: unknown data type %q", s)
}

// InstanceType is the scope a variable reference is resolved in.
type InstanceType int16

const (
	InstanceSelf     InstanceType = -1
	InstanceOther    InstanceType = -2
	InstanceAll      InstanceType = -3
	InstanceNoOne    InstanceType = -4
	InstanceGlobal   InstanceType = -5
	InstanceBuiltin  InstanceType = -6
	InstanceLocal    InstanceType = -7
	InstanceStackTop InstanceType = -9
	InstanceArgument InstanceType = -15
	InstanceStatic   InstanceType = -16
)

func (it InstanceType) String() string {
	switch it {
	case InstanceSelf:
		return "self"
	case InstanceOther:
		return "other"
	case InstanceAll:
		return "all"
	case InstanceNoOne:
		return "noone"
	case InstanceGlobal:
		return "global"
	case InstanceBuiltin:
		return "builtin"
	case InstanceLocal:
		return "local"
	case InstanceStackTop:
		return "stacktop"
	case InstanceArgument:
		return "arg"
	case InstanceStatic:
		return "static"
	default:
		return fmt.Sprintf("inst(%d)", int16(it))
	}
}

// AssetKind identifies the asset table a PushReference indexes.
type AssetKind uint8

const (
	AssetObject AssetKind = iota
	AssetSprite
	AssetSound
	AssetRoom
	AssetPath
	AssetScript
	AssetFont
	AssetTimeline
	AssetShader
	AssetSequence
	AssetAnimCurve
	AssetParticleSystem
	AssetBackground
	// AssetRoomInstance has no name table; names are synthesized from the id.
	AssetRoomInstance
	AssetFunction
)

var assetKindNames = [...]string{
	AssetObject:         "object",
	AssetSprite:         "sprite",
	AssetSound:          "sound",
	AssetRoom:           "room",
	AssetPath:           "path",
	AssetScript:         "script",
	AssetFont:           "font",
	AssetTimeline:       "timeline",
	AssetShader:         "shader",
	AssetSequence:       "sequence",
	AssetAnimCurve:      "animcurve",
	AssetParticleSystem: "particlesystem",
	AssetBackground:     "background",
	AssetRoomInstance:   "roominstance",
	AssetFunction:       "function",
}

func (k AssetKind) String() string {
	if int(k) < len(assetKindNames) {
		return assetKindNames[k]
	}
	return fmt.Sprintf("asset(%d)", uint8(k))
}

// ParseAssetKind is the inverse of AssetKind.String.
func ParseAssetKind(s string) (AssetKind, error) {
	for i, name := range assetKindNames {
		if name == s {
			return AssetKind(i), nil
		}
	}
	return 0, fmt.Errorf("gml: unknown asset kind %q", s)
}

// MarshalText encodes the kind by name so asset tables read well in JSON bundles.
func (k AssetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *AssetKind) UnmarshalText(b []byte) error {
	v, err := ParseAssetKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
