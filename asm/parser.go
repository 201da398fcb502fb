package asm

import (
	"fmt"
	"strconv"
	"strings"

	"retro6502/cpu"
)

// ParseFile turns source lines into IR items, one Add call per
// statement (label definitions and a trailing instruction on the same
// line produce two items, and .BYTE adds one item per value). The full grammar's lexer/parser is out of
// scope; this line-oriented reader produces the same IR a fuller
// grammar would, per a minimal-viable two-pass assembler.
func (a *Assembler) ParseFile(file string, lines []string) error {
	for i, raw := range lines {
		if err := a.parseLine(file, i+1, raw); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) parseLine(file string, lineNo int, raw string) error {
	line := stripComment(raw)
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if colon := strings.Index(line, ":"); colon >= 0 && !strings.HasPrefix(line, ".") {
		label := strings.TrimSpace(line[:colon])
		if label != "" && isLabelName(label) {
			a.Add(&Item{Kind: KindLabel, Label: label, File: file, Line: lineNo})
			rest := strings.TrimSpace(line[colon+1:])
			if rest == "" {
				return nil
			}
			line = rest
		}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	mnemonic := strings.ToUpper(fields[0])
	operand := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	if mnemonic == ".ORG" {
		val, err := parseNumber(operand)
		if err != nil {
			return fmt.Errorf("asm: %s:%d: .ORG: %w", file, lineNo, err)
		}
		a.Add(&Item{Kind: KindOffset, Org: val, File: file, Line: lineNo})
		return nil
	}

	if mnemonic == ".BYTE" {
		for _, tok := range strings.Split(operand, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			val, err := parseNumber(tok)
			if err != nil {
				return fmt.Errorf("asm: %s:%d: .BYTE: %w", file, lineNo, err)
			}
			a.Add(&Item{
				Kind: KindData,
				Data: &Value{Kind: ValueByte, Byte: byte(val)},
				File: file, Line: lineNo,
			})
		}
		return nil
	}

	item, err := parseInstruction(mnemonic, operand)
	if err != nil {
		return fmt.Errorf("asm: %s:%d: %w", file, lineNo, err)
	}
	item.File = file
	item.Line = lineNo
	a.Add(item)
	return nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func isLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func parseNumber(tok string) (uint16, error) {
	tok = strings.TrimSpace(tok)
	switch {
	case strings.HasPrefix(tok, "$"):
		v, err := strconv.ParseUint(tok[1:], 16, 16)
		return uint16(v), err
	case strings.HasPrefix(tok, "%"):
		v, err := strconv.ParseUint(tok[1:], 2, 16)
		return uint16(v), err
	default:
		v, err := strconv.ParseUint(tok, 10, 16)
		return uint16(v), err
	}
}

// parseInstruction handles the operand syntaxes compiler.c's grammar
// recognizes: implied, accumulator, immediate, indirect forms, and the
// bare "$addr"/"$addr,X"/"$addr,Y"/label forms whose final addressing
// mode (zero-page or absolute) isn't known until Resolve sees the
// operand's resolved width.
func parseInstruction(mnemonic, operand string) (*Item, error) {
	item := &Item{Kind: KindInstruction, Mnemonic: mnemonic}

	if operand == "" {
		item.Mode = cpu.Implied
		return item, nil
	}
	if strings.EqualFold(operand, "A") {
		item.Mode = cpu.Accumulator
		return item, nil
	}

	if strings.HasPrefix(operand, "#") {
		v, err := parseOperand(operand[1:], true)
		if err != nil {
			return nil, err
		}
		item.Mode = cpu.Immediate
		item.Operand = v
		return item, nil
	}

	if strings.HasPrefix(operand, "(") {
		inner := strings.TrimPrefix(operand, "(")
		switch {
		case strings.HasSuffix(inner, ",X)") || strings.HasSuffix(inner, ",x)"):
			tok := strings.TrimSuffix(strings.TrimSuffix(inner, ",X)"), ",x)")
			v, err := parseOperand(tok, true)
			if err != nil {
				return nil, err
			}
			item.Mode = cpu.IndirectX
			item.Operand = v
			return item, nil
		case strings.HasSuffix(inner, "),Y") || strings.HasSuffix(inner, "),y"):
			tok := strings.TrimSuffix(strings.TrimSuffix(inner, "),Y"), "),y")
			v, err := parseOperand(tok, true)
			if err != nil {
				return nil, err
			}
			item.Mode = cpu.IndirectY
			item.Operand = v
			return item, nil
		default:
			tok := strings.TrimSuffix(inner, ")")
			v, err := parseOperand(tok, false)
			if err != nil {
				return nil, err
			}
			item.Mode = cpu.Indirect
			item.Operand = v
			return item, nil
		}
	}

	indexed := notUnknown
	tok := operand
	switch {
	case strings.HasSuffix(strings.ToUpper(operand), ",X"):
		indexed = unknownX
		tok = operand[:len(operand)-2]
	case strings.HasSuffix(strings.ToUpper(operand), ",Y"):
		indexed = unknownY
		tok = operand[:len(operand)-2]
	default:
		indexed = unknownPlain
	}

	if branchMnemonics[mnemonic] {
		v, err := parseOperand(tok, false)
		if err != nil {
			return nil, err
		}
		item.Mode = cpu.Relative
		item.Operand = v
		return item, nil
	}

	v, err := parseOperand(tok, false)
	if err != nil {
		return nil, err
	}
	item.Unknown = indexed
	item.Operand = v
	return item, nil
}

// parseOperand parses a numeric literal or bare label reference into
// a Value. A literal's byte-vs-word kind is decided by its digit
// count ("$12" is a byte, "$1234" a word; plain decimal follows the
// same rule against 0xff), mirroring how a real grammar would carry
// Y_TYPE_BYTE/Y_TYPE_WORD from the lexer itself rather than guessing
// from magnitude alone. forceByte is set for indirect-indexed operand
// bytes, which are always zero-page regardless of literal width.
func parseOperand(tok string, forceByte bool) (*Value, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, fmt.Errorf("empty operand")
	}
	if !strings.HasPrefix(tok, "$") && !strings.HasPrefix(tok, "%") && !isDigit(tok[0]) {
		return &Value{Kind: ValueLabel, Label: tok}, nil
	}

	val, err := parseNumber(tok)
	if err != nil {
		return nil, err
	}
	isByte := forceByte
	if strings.HasPrefix(tok, "$") {
		isByte = isByte || len(tok)-1 <= 2
	} else if strings.HasPrefix(tok, "%") {
		isByte = isByte || len(tok)-1 <= 8
	} else {
		isByte = isByte || val <= 0xff
	}
	if isByte {
		return &Value{Kind: ValueByte, Byte: byte(val)}, nil
	}
	return &Value{Kind: ValueWord, Word: val}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
