// Package acme renders a finished asmil.Module into ACME assembler
// text and, optionally, invokes the external `acme` binary to produce
// a Commodore 64 `.prg` binary (spec §4.9, §6).
package acme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blendsdk/blend65/internal/asmil"
)

// Emit renders mod as ACME-syntax source text: one instruction per
// line, labels flush left, data directives as `!byte`/`!word`/`!text`/
// `!fill`, origin as `* = $xxxx` (spec §4.9, §6). Other directives such as
// `!to` come through as Raw items, written out verbatim.
func Emit(mod asmil.Module) string {
	var sb strings.Builder
	for _, it := range mod.Items {
		emitItem(&sb, it)
	}
	return sb.String()
}

func emitItem(sb *strings.Builder, it asmil.Item) {
	switch it.Kind {
	case asmil.ItemInstruction:
		emitInstruction(sb, it)
	case asmil.ItemLabel:
		sb.WriteString(it.LabelName)
		sb.WriteString(":\n")
	case asmil.ItemData:
		emitData(sb, it)
	case asmil.ItemOrigin:
		fmt.Fprintf(sb, "* = $%04X\n", it.OriginAddress)
	case asmil.ItemComment:
		emitComment(sb, it)
	case asmil.ItemBlankLine:
		sb.WriteString("\n")
	case asmil.ItemRaw:
		sb.WriteString(it.Raw)
		sb.WriteString("\n")
	}
}

func emitInstruction(sb *strings.Builder, it asmil.Item) {
	sb.WriteString("\t")
	sb.WriteString(it.Mnemonic)
	operand := operandText(it)
	if operand != "" {
		sb.WriteString(" ")
		sb.WriteString(operand)
	}
	if it.Text != "" {
		sb.WriteString(" ; ")
		sb.WriteString(it.Text)
	}
	sb.WriteString("\n")
}

func operandText(it asmil.Item) string {
	switch it.Mode {
	case asmil.Implied:
		return ""
	case asmil.Accumulator:
		return ""
	case asmil.Immediate:
		return "#" + valueText(it.Operand)
	case asmil.ZeroPage, asmil.Absolute, asmil.Relative:
		return valueText(it.Operand)
	case asmil.ZeroPageX, asmil.AbsoluteX:
		return valueText(it.Operand) + ",x"
	case asmil.ZeroPageY, asmil.AbsoluteY:
		return valueText(it.Operand) + ",y"
	case asmil.IndirectX:
		return "(" + valueText(it.Operand) + ",x)"
	case asmil.IndirectY:
		return "(" + valueText(it.Operand) + "),y"
	case asmil.Indirect:
		return "(" + valueText(it.Operand) + ")"
	default:
		return valueText(it.Operand)
	}
}

func valueText(op asmil.Operand) string {
	if op.Label != "" {
		return op.Label
	}
	return "$" + strconv.FormatInt(int64(op.Value), 16)
}

func emitData(sb *strings.Builder, it asmil.Item) {
	switch it.DataType {
	case asmil.DataByte:
		sb.WriteString("\t!byte ")
		sb.WriteString(joinValues(it.DataValues))
		sb.WriteString("\n")
	case asmil.DataWord:
		sb.WriteString("\t!word ")
		if it.DataText != "" {
			sb.WriteString(it.DataText)
		} else {
			sb.WriteString(joinValues(it.DataValues))
		}
		sb.WriteString("\n")
	case asmil.DataText:
		fmt.Fprintf(sb, "\t!text %q", it.DataText)
		if len(it.DataValues) > 0 {
			sb.WriteString(", ")
			sb.WriteString(joinValues(it.DataValues))
		}
		sb.WriteString("\n")
	case asmil.DataFill:
		value := 0
		if len(it.DataValues) > 0 {
			value = it.DataValues[0]
		}
		fmt.Fprintf(sb, "\t!fill %d, $%02X\n", it.FillLength, value)
	}
}

func joinValues(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = "$" + strconv.FormatInt(int64(v), 16)
	}
	return strings.Join(parts, ", ")
}

func emitComment(sb *strings.Builder, it asmil.Item) {
	switch it.Style {
	case asmil.CommentBanner:
		sb.WriteString("; ")
		sb.WriteString(it.Text)
		sb.WriteString("\n")
	default:
		sb.WriteString("\t; ")
		sb.WriteString(it.Text)
		sb.WriteString("\n")
	}
}

// VICELabels renders the module's exported code/data labels as VICE
// monitor label-import lines: `al C:$xxxx .name` (spec §6).
func VICELabels(mod asmil.Module) string {
	var sb strings.Builder
	for _, it := range mod.Items {
		if it.Kind != asmil.ItemLabel || !it.Exported || it.Address == nil {
			continue
		}
		fmt.Fprintf(&sb, "al C:$%04X .%s\n", *it.Address, it.LabelName)
	}
	return sb.String()
}
