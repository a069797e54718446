package desktopentry

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"hopper/internal/apps"
)

const groupName = "Desktop Entry"

// ParseFile reads the desktop entry at path. The boolean result is false when
// the entry asks not to be displayed; the returned app is then empty.
func ParseFile(path string) (apps.App, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindRead, Err: err}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a desktop entry from r. path is used for error messages and the
// %k field code.
func Parse(r io.Reader, path string) (apps.App, bool, error) {
	fields, found, err := readGroup(r)
	if err != nil {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindRead, Err: err}
	}
	if !found {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindMissingSection}
	}

	for _, key := range []string{"NoDisplay", "Hidden"} {
		hidden, err := boolValue(fields, key, path)
		if err != nil {
			return apps.App{}, false, err
		}
		if hidden {
			return apps.App{}, false, nil
		}
	}

	rawName, ok := fields["Name"]
	if !ok {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindMissingKey, Key: "Name"}
	}
	name := norm.NFC.String(unescape(rawName))
	icon := unescape(fields["Icon"])

	rawExec, ok := fields["Exec"]
	if !ok {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindMissingKey, Key: "Exec"}
	}
	exec := splitExec(unescape(rawExec), name, icon, path)
	if len(exec) == 0 {
		return apps.App{}, false, &ParseError{Path: path, Kind: KindInvalidValue, Key: "Exec", Value: rawExec}
	}

	terminal, err := boolValue(fields, "Terminal", path)
	if err != nil {
		return apps.App{}, false, err
	}

	return apps.New(name, icon, exec, terminal), true, nil
}

// readGroup collects the keys of the [Desktop Entry] group. Localized keys
// such as Name[de] are kept under their full name and so never shadow the
// default value. The first occurrence of a key wins.
func readGroup(r io.Reader) (map[string]string, bool, error) {
	fields := make(map[string]string)
	found := false
	inGroup := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if inGroup {
				// Only the first [Desktop Entry] group counts.
				break
			}
			inGroup = line[1:len(line)-1] == groupName
			found = found || inGroup
			continue
		}
		if !inGroup {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, exists := fields[key]; exists {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	return fields, found, nil
}

func boolValue(fields map[string]string, key, path string) (bool, error) {
	value, ok := fields[key]
	if !ok {
		return false, nil
	}
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ParseError{Path: path, Kind: KindInvalidValue, Key: key, Value: value}
	}
}
