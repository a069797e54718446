package desktopentry

import "strings"

// unescape applies the desktop entry string escapes \s \n \t \r and \\.
// Unknown escapes are kept verbatim so the Exec quoting pass can see them.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		i++
		if i >= len(runes) {
			break
		}
		switch runes[i] {
		case '\\':
			b.WriteRune('\\')
		case 'n':
			b.WriteRune('\n')
		case 's':
			b.WriteRune(' ')
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		default:
			b.WriteRune('\\')
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// splitExec turns an unescaped Exec value into an argument list.
func splitExec(s, name, icon, path string) []string {
	var (
		args    []string
		part    strings.Builder
		inQuote bool
	)
	flush := func() {
		if part.Len() > 0 {
			args = append(args, part.String())
			part.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuote:
			switch c {
			case '"':
				flush()
				inQuote = false
			case '\\':
				i++
				if i >= len(runes) {
					break
				}
				switch next := runes[i]; next {
				case '"', '`', '$', '\\':
					part.WriteRune(next)
				default:
					part.WriteRune('\\')
					part.WriteRune(next)
				}
			default:
				part.WriteRune(c)
			}
		case c == '"':
			inQuote = true
		case c == ' ':
			flush()
		case c == '%':
			i++
			if i >= len(runes) {
				break
			}
			switch runes[i] {
			case '%':
				part.WriteRune('%')
			case 'i':
				if icon != "" {
					flush()
					args = append(args, "--icon", icon)
				}
			case 'c':
				flush()
				args = append(args, name)
			case 'k':
				flush()
				args = append(args, path)
			}
		default:
			part.WriteRune(c)
		}
	}
	flush()
	return args
}
