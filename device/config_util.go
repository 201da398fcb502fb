package device

import "strconv"

// ParseUint16 accepts decimal ("512"), "$"-prefixed hex ("$0200"), and
// "0x"-prefixed hex ("0x0200") address literals, the forms used
// throughout the config sections and the assembler's CLI-adjacent
// tooling.
func ParseUint16(s string) (uint16, error) {
	if len(s) > 1 && s[0] == '$' {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
