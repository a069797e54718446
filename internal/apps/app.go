package apps

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// App is a launchable application.
type App struct {
	ID       string   `msgpack:"id" json:"id"`
	Name     string   `msgpack:"name" json:"name"`
	Icon     string   `msgpack:"icon" json:"icon"`
	Exec     []string `msgpack:"exec" json:"exec"`
	Terminal bool     `msgpack:"terminal" json:"terminal"`
	// Score is relative to the owning registry's reference time. Only the
	// frecency model gives it meaning.
	Score float64 `msgpack:"score" json:"score"`
}

// New returns an app with a fresh ID and zero score.
func New(name, icon string, exec []string, terminal bool) App {
	return App{
		ID:       NewID(),
		Name:     name,
		Icon:     icon,
		Exec:     exec,
		Terminal: terminal,
	}
}

// NewID returns a new random record identifier.
func NewID() string {
	return uuid.NewString()
}

// String returns the display name.
func (a App) String() string {
	return a.Name
}

// Clone returns a copy that does not share the Exec slice.
func (a App) Clone() App {
	a.Exec = slices.Clone(a.Exec)
	return a
}

// Key returns the structural identity of the app as a comparable value.
func (a App) Key() string {
	var b strings.Builder
	b.Grow(len(a.Name) + len(a.Icon) + 16*len(a.Exec))
	b.WriteString(a.Name)
	b.WriteByte(0)
	for _, arg := range a.Exec {
		b.WriteString(arg)
		b.WriteByte(0x1f)
	}
	b.WriteByte(0)
	b.WriteString(a.Icon)
	return b.String()
}

// Equal reports whether a and b describe the same application. ID, Score,
// and Terminal are ignored.
func Equal(a, b App) bool {
	return a.Name == b.Name && a.Icon == b.Icon && slices.Equal(a.Exec, b.Exec)
}

// Compare orders apps by name, then exec arguments, then icon.
func Compare(a, b App) int {
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		slices.Compare(a.Exec, b.Exec),
		cmp.Compare(a.Icon, b.Icon),
	)
}

// SortAndDedup sorts list in place by Compare and removes structural
// duplicates, keeping the first of each run.
func SortAndDedup(list []App) []App {
	slices.SortStableFunc(list, Compare)
	return slices.CompactFunc(list, Equal)
}
