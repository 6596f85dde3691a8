package station

// CallSign derives a station identifier from the PI code following the
// RBDS allocation rules: North American four-letter K/W stations encode
// their call sign arithmetically, and European PI codes with zeroed
// middle or low bytes map to the reserved A-prefixed forms. PI ranges
// with no derivable call sign return an empty string.
func CallSign(pi uint16) string {
	letter := func(n uint16) byte { return 'A' + byte(n) }

	switch {
	case pi&0x0F00 == 0x0000:
		// European local broadcast.
		return string([]byte{'A', letter(pi >> 12 & 0xF), letter(pi >> 4 & 0xF), letter(pi & 0xF)})
	case pi&0x00FF == 0x0000:
		// European test modes.
		return string([]byte{'A', 'F', letter(pi >> 12 & 0xF), letter(pi >> 8 & 0xF)})
	case pi >= 4096 && pi <= 39247:
		var first byte
		n := pi
		if n < 21672 {
			first = 'K'
			n -= 4096
		} else {
			first = 'W'
			n -= 21672
		}
		return string([]byte{first, letter(n / 676), letter(n / 26 % 26), letter(n % 26)})
	default:
		return ""
	}
}
