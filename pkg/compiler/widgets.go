package compiler

import (
	"fmt"
	"strconv"
)

// FieldType selects the coercion applied to one positional widget value.
type FieldType int

const (
	// FieldInt coerces via integer parse, then float parse (truncating),
	// then the field default. Never an error.
	FieldInt FieldType = iota
	// FieldFloat coerces via float parse, then the field default.
	FieldFloat
	// FieldString stringifies any present value; absent values get the default.
	FieldString
)

// WidgetField names one position of a node kind's widget array.
type WidgetField struct {
	Name    string
	Type    FieldType
	Default any
}

// WidgetSchema describes how a node kind lays out its positional values.
// Min is the minimum array length for the schema to apply at all; shorter
// arrays decode to no named fields, matching the editor's save format for
// partially configured nodes.
type WidgetSchema struct {
	Min    int
	Fields []WidgetField
}

// defaultSchemas is the built-in catalog, position-for-position the layout
// the visual editor saves for each kind. Kinds absent from the table pass
// through the compiler with no named fields.
func defaultSchemas() map[string]WidgetSchema {
	return map[string]WidgetSchema{
		"LoadImage": {Min: 1, Fields: []WidgetField{
			{Name: "image", Type: FieldString, Default: ""},
		}},
		"CLIPTextEncode": {Min: 1, Fields: []WidgetField{
			{Name: "text", Type: FieldString, Default: ""},
		}},
		"KSampler": {Min: 7, Fields: []WidgetField{
			{Name: "seed", Type: FieldInt, Default: 123456},
			{Name: "control_after_generate", Type: FieldString, Default: "fixed"},
			{Name: "steps", Type: FieldInt, Default: 20},
			{Name: "cfg", Type: FieldFloat, Default: 8.0},
			{Name: "sampler_name", Type: FieldString, Default: "euler"},
			{Name: "scheduler", Type: FieldString, Default: "normal"},
			{Name: "denoise", Type: FieldFloat, Default: 1.0},
		}},
		"EmptyLatentImage": {Min: 3, Fields: []WidgetField{
			{Name: "width", Type: FieldInt, Default: 512},
			{Name: "height", Type: FieldInt, Default: 512},
			{Name: "batch_size", Type: FieldInt, Default: 1},
		}},
		"Canny": {Min: 2, Fields: []WidgetField{
			{Name: "low_threshold", Type: FieldFloat, Default: 0.4},
			{Name: "high_threshold", Type: FieldFloat, Default: 0.8},
		}},
		"SaveImage": {Min: 1, Fields: []WidgetField{
			{Name: "filename_prefix", Type: FieldString, Default: "output"},
		}},
		"IPAdapterAdvanced": {Min: 1, Fields: []WidgetField{
			{Name: "weight", Type: FieldFloat, Default: 1.0},
			{Name: "weight_type", Type: FieldString, Default: "original"},
			{Name: "combine_embeds", Type: FieldString, Default: "concat"},
			{Name: "start_at", Type: FieldFloat, Default: 0.0},
			{Name: "end_at", Type: FieldFloat, Default: 1.0},
			{Name: "embeds_scaling", Type: FieldString, Default: "V only"},
		}},
		"ControlNetApply": {Min: 1, Fields: []WidgetField{
			{Name: "strength", Type: FieldFloat, Default: 1.0},
		}},
	}
}

// decodeWidgets maps a raw positional array to named fields per the schema.
// Positions beyond the array fall back to field defaults. The result is
// empty (nil) for unknown kinds and for arrays shorter than schema.Min.
func decodeWidgets(schema WidgetSchema, values []any, known bool) map[string]any {
	if !known || len(values) < schema.Min {
		return nil
	}
	fields := make(map[string]any, len(schema.Fields))
	for i, f := range schema.Fields {
		var raw any
		if i < len(values) {
			raw = values[i]
		}
		fields[f.Name] = coerce(f, raw)
	}
	return fields
}

// coerce applies the field's type to a raw value. Coercion is total: any
// unparseable value collapses to the field default.
func coerce(f WidgetField, raw any) any {
	if raw == nil {
		return f.Default
	}
	switch f.Type {
	case FieldInt:
		return coerceInt(raw, f.Default)
	case FieldFloat:
		return coerceFloat(raw, f.Default)
	default:
		return coerceString(raw, f.Default)
	}
}

func coerceInt(raw, fallback any) any {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		if fl, err := strconv.ParseFloat(v, 64); err == nil {
			return int(fl)
		}
	}
	return fallback
}

func coerceFloat(raw, fallback any) any {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if fl, err := strconv.ParseFloat(v, 64); err == nil {
			return fl
		}
	}
	return fallback
}

func coerceString(raw, fallback any) any {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return fallback
	default:
		return fmt.Sprintf("%v", v)
	}
}
