package manifest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Cargo is the Cargo.toml format.
type Cargo struct{}

type cargoManifest struct {
	Package *struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
	Workspace *struct {
		Members      []string       `toml:"members"`
		Exclude      []string       `toml:"exclude"`
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
	cargoDependencies
	Target map[string]cargoDependencies `toml:"target"`
}

type cargoDependencies struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

func (d cargoDependencies) tables() []map[string]any {
	return []map[string]any{d.Dependencies, d.DevDependencies, d.BuildDependencies}
}

// Name returns "cargo".
func (Cargo) Name() string { return "cargo" }

// File returns "Cargo.toml".
func (Cargo) File() string { return "Cargo.toml" }

// Parse decodes a Cargo manifest. A version inherited from the workspace
// (version.workspace = true) is not a concrete version and is left nil.
func (Cargo) Parse(data []byte) (*Manifest, error) {
	var raw cargoManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid Cargo.toml: %w", err)
	}

	m := &Manifest{}
	if raw.Package != nil {
		m.Name = raw.Package.Name
		if s, ok := raw.Package.Version.(string); ok {
			v, err := semver.StrictNewVersion(s)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q of %s: %w", s, m.Name, err)
			}
			m.Version = v
		}
	}

	if raw.Workspace != nil {
		excluded := make(map[string]bool, len(raw.Workspace.Exclude))
		for _, e := range raw.Workspace.Exclude {
			excluded[e] = true
		}
		for _, member := range raw.Workspace.Members {
			if !excluded[member] {
				m.Members = append(m.Members, member)
			}
		}
	}

	tables := raw.tables()
	targets := make([]string, 0, len(raw.Target))
	for cfg := range raw.Target {
		targets = append(targets, cfg)
	}
	sort.Strings(targets)
	for _, cfg := range targets {
		tables = append(tables, raw.Target[cfg].tables()...)
	}

	seen := make(map[string]bool)
	for _, table := range tables {
		for _, key := range sortedKeys(table) {
			m.Dependencies = appendUnique(m.Dependencies, seen, cargoDependencyName(key, table[key]))
		}
	}

	return m, nil
}

// cargoDependencyName honors renamed dependencies: foo = { package = "bar" }.
func cargoDependencyName(key string, value any) string {
	if table, ok := value.(map[string]any); ok {
		if pkg, ok := table["package"].(string); ok {
			return pkg
		}
	}
	return key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var cargoDependencyTables = map[string]bool{
	"dependencies":       true,
	"dev-dependencies":   true,
	"build-dependencies": true,
}

// cargoEntry collects what a manifest says about one dependency, which may
// be spread over several expressions of a [dependencies.<key>] table.
type cargoEntry struct {
	key       string
	pkg       string
	inherited bool
	versions  []unstable.Range
}

type cargoSplice struct {
	start, end int
	text       string
}

// Rewrite updates [package].version and the version requirements of
// dependencies in deps, in string, inline table and table form, including
// target-specific tables. Dependencies inherited with workspace = true are
// left alone. Only the rewritten string values change.
func (Cargo) Rewrite(data []byte, version *semver.Version, deps domain.VersionMap) ([]byte, error) {
	w := cargoWalker{entries: make(map[string]*cargoEntry)}

	p := unstable.Parser{}
	p.Reset(data)
	var table []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = keyPath(nil, expr.Key())
		case unstable.KeyValue:
			w.visit(keyPath(table, expr.Key()), expr.Value())
		}
	}
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("invalid Cargo.toml: %w", err)
	}

	var splices []cargoSplice
	if version != nil && w.own != nil {
		splices = append(splices, stringSplice(data, *w.own, version.String()))
	}
	for _, id := range w.order {
		entry := w.entries[id]
		if entry.inherited {
			continue
		}
		name := entry.key
		if entry.pkg != "" {
			name = entry.pkg
		}
		next, ok := deps[name]
		if !ok {
			continue
		}
		for _, r := range entry.versions {
			current := string(data[r.Offset+1 : r.Offset+r.Length-1])
			if req, ok := requirement(current, next); ok {
				splices = append(splices, stringSplice(data, r, req))
			}
		}
	}
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })

	var out bytes.Buffer
	pos := 0
	for _, s := range splices {
		out.Write(data[pos:s.start])
		out.WriteString(s.text)
		pos = s.end
	}
	out.Write(data[pos:])
	return out.Bytes(), nil
}

type cargoWalker struct {
	own     *unstable.Range
	entries map[string]*cargoEntry
	order   []string
}

// visit records the leaf values below path, descending into inline tables.
func (w *cargoWalker) visit(path []string, value *unstable.Node) {
	if value.Kind == unstable.InlineTable {
		it := value.Children()
		for it.Next() {
			kv := it.Node()
			w.visit(keyPath(path, kv.Key()), kv.Value())
		}
		return
	}

	if len(path) == 2 && path[0] == "package" && path[1] == "version" && value.Kind == unstable.String {
		r := value.Raw
		w.own = &r
		return
	}

	table, key, rest, ok := cargoDependencyPath(path)
	if !ok {
		return
	}
	entry := w.entry(table, key)
	switch {
	case len(rest) == 0 && value.Kind == unstable.String:
		entry.versions = append(entry.versions, value.Raw)
	case len(rest) != 1:
	case rest[0] == "version" && value.Kind == unstable.String:
		entry.versions = append(entry.versions, value.Raw)
	case rest[0] == "package" && value.Kind == unstable.String:
		entry.pkg = string(value.Data)
	case rest[0] == "workspace" && value.Kind == unstable.Bool:
		entry.inherited = string(value.Data) == "true"
	}
}

func (w *cargoWalker) entry(table, key string) *cargoEntry {
	id := table + "\x00" + key
	if e, ok := w.entries[id]; ok {
		return e
	}
	e := &cargoEntry{key: key}
	w.entries[id] = e
	w.order = append(w.order, id)
	return e
}

// cargoDependencyPath splits a key path at the dependency table it belongs
// to: [workspace.]dependencies, dev-, build- and their target.<cfg> forms.
func cargoDependencyPath(path []string) (table, key string, rest []string, ok bool) {
	start := 0
	switch {
	case len(path) > 0 && path[0] == "workspace":
		start = 1
	case len(path) > 1 && path[0] == "target":
		start = 2
	}
	if len(path) < start+2 || !cargoDependencyTables[path[start]] {
		return "", "", nil, false
	}
	if start == 1 && path[1] != "dependencies" {
		return "", "", nil, false
	}
	return strings.Join(path[:start+1], "."), path[start+1], path[start+2:], true
}

func keyPath(prefix []string, it unstable.Iterator) []string {
	path := append([]string(nil), prefix...)
	for it.Next() {
		path = append(path, string(it.Node().Data))
	}
	return path
}

// stringSplice replaces a string value, keeping its quote style.
func stringSplice(data []byte, r unstable.Range, text string) cargoSplice {
	start, end := int(r.Offset), int(r.Offset+r.Length)
	quote := string(data[start])
	return cargoSplice{start: start, end: end, text: quote + text + quote}
}
