package cw

// morseTable maps dit/dah patterns to characters.
var morseTable = map[string]rune{
	".-":    'A',
	"-...":  'B',
	"-.-.":  'C',
	"-..":   'D',
	".":     'E',
	"..-.":  'F',
	"--.":   'G',
	"....":  'H',
	"..":    'I',
	".---":  'J',
	"-.-":   'K',
	".-..":  'L',
	"--":    'M',
	"-.":    'N',
	"---":   'O',
	".--.":  'P',
	"--.-":  'Q',
	".-.":   'R',
	"...":   'S',
	"-":     'T',
	"..-":   'U',
	"...-":  'V',
	".--":   'W',
	"-..-":  'X',
	"-.--":  'Y',
	"--..":  'Z',
	".----": '1',
	"..---": '2',
	"...--": '3',
	"....-": '4',
	".....": '5',
	"-....": '6',
	"--...": '7',
	"---..": '8',
	"----.": '9',
	"-----": '0',

	".-.-.-":  '.',
	"--..--":  ',',
	"..--..":  '?',
	"-..-.":   '/',
	"-...-":   '=',
	".-.-.":   '+',
	"-....-":  '-',
	".--.-.":  '@',
	"-.-.--":  '!',
	".----.":  '\'',
	"-.--.":   '(',
	"-.--.-":  ')',
	".-...":   '&',
	"---...":  ':',
	"-.-.-.":  ';',
	".-..-.":  '"',
	"...-..-": '$',
	"..--.-":  '_',
}

// unknownPattern replaces a dit/dah sequence with no table entry so the
// operator sees that something was sent rather than having it dropped.
const unknownPattern = '#'

// lookupPattern maps a completed pattern to its character.
func lookupPattern(pattern string) rune {
	if ch, ok := morseTable[pattern]; ok {
		return ch
	}
	return unknownPattern
}
