package logger

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// Everforest Dark palette
var palette = struct {
	fg, green, greenDeep, aqua, orange, yellow, red, redBg, yellowBg string
}{
	fg:        "\x1b[38;5;223m",
	green:     "\x1b[38;5;108m",
	greenDeep: "\x1b[38;5;65m",
	aqua:      "\x1b[38;5;109m",
	orange:    "\x1b[38;5;208m",
	yellow:    "\x1b[38;5;179m",
	red:       "\x1b[38;5;167m",
	redBg:     "\x1b[48;5;52m",
	yellowBg:  "\x1b[48;5;58m",
}

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  s.lifecycle  Wrote  path=out/player_shim.go class=Player"
type minimalEncoder struct {
	zapcore.Encoder // base encoder, used only for With() field accumulation
	color           bool
	context         []zapcore.Field
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		color:   os.Getenv("NO_COLOR") == "",
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		color:   enc.color,
		context: append([]zapcore.Field(nil), enc.context...),
	}
}

// AddString and friends are routed through the stored context so With()
// fields are printed alongside per-entry fields.
func (enc *minimalEncoder) AddString(key, value string) {
	enc.context = append(enc.context, zap.String(key, value))
}

func (enc *minimalEncoder) paint(color, s string) string {
	if !enc.color || s == "" {
		return s
	}
	return color + s + colorReset
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(enc.paint(palette.greenDeep, ent.Time.Format("15:04:05")))

	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(enc.levelString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(enc.paint(palette.orange, abbreviateName(ent.LoggerName)))
	}

	final.AppendString("  ")
	final.AppendString(enc.colorizeMessage(ent.Message))

	all := append(append([]zapcore.Field(nil), enc.context...), fields...)
	if rendered := enc.renderFields(all); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

func (enc *minimalEncoder) levelString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return enc.paint(palette.aqua, "DEBUG")
	case zapcore.WarnLevel:
		if !enc.color {
			return "WARN"
		}
		return colorBold + palette.yellowBg + palette.yellow + "WARN" + colorReset
	default:
		if !enc.color {
			return level.CapitalString()
		}
		return colorBold + palette.redBg + palette.red + level.CapitalString() + colorReset
	}
}

// colorizeMessage highlights bracketed prefixes such as [shimgen] or [DRY-RUN].
func (enc *minimalEncoder) colorizeMessage(msg string) string {
	if !enc.color {
		return msg
	}
	var b strings.Builder
	last := 0
	for _, m := range bracketPattern.FindAllStringIndex(msg, -1) {
		b.WriteString(enc.paint(palette.fg, msg[last:m[0]]))
		b.WriteString(enc.paint(palette.green, msg[m[0]:m[1]]))
		last = m[1]
	}
	b.WriteString(enc.paint(palette.fg, msg[last:]))
	return b.String()
}

// abbreviateName shortens component names: shimgen.lifecycle -> s.lifecycle
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// renderFields prints every field as key=value. Fields are never dropped.
func (enc *minimalEncoder) renderFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.SkipType {
			continue
		}
		parts = append(parts, enc.paint(palette.aqua, f.Key)+"="+getFieldValue(f))
	}
	return strings.Join(parts, " ")
}

// getFieldValue extracts the value from a zap field, handling different field types
func getFieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type, zapcore.UintptrType:
		return fmt.Sprintf("%d", uint64(field.Integer))
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
	case zapcore.Float32Type:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(field.Integer)))
	case zapcore.DurationType:
		return fmt.Sprintf("%v", field.Interface)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			return err.Error()
		}
		return ""
	}

	if field.Interface != nil {
		if m, ok := field.Interface.(map[string]int); ok {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, fmt.Sprintf("%s:%d", k, m[k]))
			}
			return strings.Join(pairs, ",")
		}
		return fmt.Sprintf("%v", field.Interface)
	}
	return field.String
}
