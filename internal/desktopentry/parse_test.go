package desktopentry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
)

func TestSplitExecBasic(t *testing.T) {
	got := splitExec(unescape("/usr/bin/cat --flag"), "cat", "cat", "/cat.desktop")
	assert.Equal(t, []string{"/usr/bin/cat", "--flag"}, got)
}

func TestSplitExecQuoted(t *testing.T) {
	got := splitExec(unescape(`"/usr/bin/cat" --flag`), "cat", "cat", "/cat.desktop")
	assert.Equal(t, []string{"/usr/bin/cat", "--flag"}, got)
}

func TestSplitExecFieldCodes(t *testing.T) {
	got := splitExec(unescape(`"/usr/bin/cat" --flag %k %i %c %f %%`), "cat", "cat", "/cat.desktop")
	assert.Equal(t, []string{"/usr/bin/cat", "--flag", "/cat.desktop", "--icon", "cat", "cat", "%"}, got)
}

func TestSplitExecIconCodeWithoutIcon(t *testing.T) {
	got := splitExec("app %i --x", "App", "", "/app.desktop")
	assert.Equal(t, []string{"app", "--x"}, got)
}

func TestSplitExecEscapesInsideQuotes(t *testing.T) {
	raw := `"/usr/bin folder/cat" --flag "a very weird \\\\ \" string \\$ <>` + "`" + `" `
	firstPass := `"/usr/bin folder/cat" --flag "a very weird \\ \" string \$ <>` + "`" + `" `
	require.Equal(t, firstPass, unescape(raw))

	got := splitExec(unescape(raw), "cat", "cat", "/cat icon.png")
	assert.Equal(t, []string{
		"/usr/bin folder/cat",
		"--flag",
		`a very weird \ " string $ <>` + "`",
	}, got)
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b\nc\td\re\\f", unescape(`a\sb\nc\td\re\\f`))
	assert.Equal(t, `keep \q`, unescape(`keep \q`))
	assert.Equal(t, "trailing", unescape(`trailing\`))
}

func writeEntry(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseFileValid(t *testing.T) {
	path := writeEntry(t, "test.desktop", `[Desktop Entry]
 Name=Test
 Icon=testicon
 Exec=/usr/bin/test --with-flag %f`)

	app, ok, err := ParseFile(path)
	require.NoError(t, err)
	require.True(t, ok)

	want := apps.New("Test", "testicon", []string{"/usr/bin/test", "--with-flag"}, false)
	assert.True(t, apps.Equal(want, app), "got %+v", app)
	assert.NotEmpty(t, app.ID)
	assert.False(t, app.Terminal)
}

func TestParseFileWithFieldCodes(t *testing.T) {
	path := writeEntry(t, "test2.desktop", `[Desktop Entry]
Name=Test
Icon=testicon
Exec=/usr/bin/test --with-flag %c %i %k %f
Terminal=true`)

	app, ok, err := ParseFile(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"/usr/bin/test", "--with-flag", "Test", "--icon", "testicon", path}, app.Exec)
	assert.True(t, app.Terminal)
}

func TestParseIgnoresOtherGroupsAndLocalizedKeys(t *testing.T) {
	body := `# comment
[Desktop Action new-window]
Name=New Window
Exec=firefox --new-window

[Desktop Entry]
Name[de]=Feuerfuchs
Name=Firefox
Exec=firefox %u
Icon=firefox

[Desktop Action private]
Exec=firefox --private-window
`
	app, ok, err := Parse(strings.NewReader(body), "/firefox.desktop")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Firefox", app.Name)
	assert.Equal(t, []string{"firefox"}, app.Exec)
	assert.Equal(t, "firefox", app.Icon)
}

func TestParseHiddenEntries(t *testing.T) {
	for _, key := range []string{"NoDisplay", "Hidden"} {
		t.Run(key, func(t *testing.T) {
			body := "[Desktop Entry]\nName=X\nExec=x\n" + key + "=true\n"
			app, ok, err := Parse(strings.NewReader(body), "/x.desktop")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, app.ID)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind ErrorKind
		key  string
	}{
		{"no group", "Name=X\nExec=x\n", KindMissingSection, ""},
		{"no name", "[Desktop Entry]\nExec=x\n", KindMissingKey, "Name"},
		{"no exec", "[Desktop Entry]\nName=X\n", KindMissingKey, "Exec"},
		{"empty exec", "[Desktop Entry]\nName=X\nExec=%f\n", KindInvalidValue, "Exec"},
		{"bad nodisplay", "[Desktop Entry]\nName=X\nExec=x\nNoDisplay=yes\n", KindInvalidValue, "NoDisplay"},
		{"bad terminal", "[Desktop Entry]\nName=X\nExec=x\nTerminal=1\n", KindInvalidValue, "Terminal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := Parse(strings.NewReader(tc.body), "/x.desktop")
			require.Error(t, err)
			assert.False(t, ok)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.kind, parseErr.Kind)
			assert.Equal(t, tc.key, parseErr.Key)
			assert.Contains(t, err.Error(), "/x.desktop")
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.desktop"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
