package station

// The RDS character repertoire is the EBU Latin set: ASCII in the low
// half apart from a few substitutions, accented and national characters
// in rows 0x80..0xFF. Codes with no assignment decode to U+FFFD rather
// than being dropped, so a bad segment is visible in the output.

const replacement = '�'

// lowSubstitutions are the codes below 0x80 where the repertoire
// departs from ASCII.
var lowSubstitutions = map[byte]rune{
	0x24: '¤',
	0x5E: '―',
	0x60: '‖',
	0x7E: '¯',
}

// highTable covers rows 0x80..0xFF, sixteen characters per row.
var highTable = [...]rune{
	// 0x80
	'á', 'à', 'é', 'è', 'í', 'ì', 'ó', 'ò', 'ú', 'ù', 'Ñ', 'Ç', 'Ş', 'ß', '¡', 'Ĳ',
	// 0x90
	'â', 'ä', 'ê', 'ë', 'î', 'ï', 'ô', 'ö', 'û', 'ü', 'ñ', 'ç', 'ş', 'ǧ', 'ı', 'ĳ',
	// 0xA0
	'ª', 'α', '©', '‰', 'Ǧ', 'ě', 'ň', 'ő', 'π', '€', '£', '$', '←', '↑', '→', '↓',
	// 0xB0
	'º', '¹', '²', '³', '±', 'İ', 'ń', 'ű', 'µ', '¿', '÷', '°', '¼', '½', '¾', '§',
	// 0xC0
	'Á', 'À', 'É', 'È', 'Í', 'Ì', 'Ó', 'Ò', 'Ú', 'Ù', 'Ř', 'Č', 'Š', 'Ž', 'Ð', 'Ŀ',
	// 0xD0
	'Â', 'Ä', 'Ê', 'Ë', 'Î', 'Ï', 'Ô', 'Ö', 'Û', 'Ü', 'ř', 'č', 'š', 'ž', 'đ', 'ŀ',
	// 0xE0
	'Ã', 'Å', 'Æ', 'Œ', 'ŷ', 'ý', 'Õ', 'Ø', 'Þ', 'Ŋ', 'Ŕ', 'Ć', 'Ś', 'Ź', 'Ŧ', 'ð',
	// 0xF0
	'ã', 'å', 'æ', 'œ', 'ŵ', 'ý', 'õ', 'ø', 'þ', 'ŋ', 'ŕ', 'ć', 'ś', 'ź', 'ŧ', replacement,
}

// DecodeChar maps one RDS character code to its rune. Control codes
// below 0x20 have no glyph; 0x0D is the radiotext terminator and is
// handled before rendering, not here.
func DecodeChar(code byte) rune {
	switch {
	case code < 0x20:
		return replacement
	case code < 0x80:
		if r, ok := lowSubstitutions[code]; ok {
			return r
		}
		return rune(code)
	default:
		return highTable[code-0x80]
	}
}
