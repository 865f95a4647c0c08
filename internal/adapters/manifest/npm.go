package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Npm is the package.json format.
type Npm struct{}

var npmDependencyFields = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

type npmManifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Workspaces           json.RawMessage   `json:"workspaces"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// Name returns "npm".
func (Npm) Name() string { return "npm" }

// File returns "package.json".
func (Npm) File() string { return "package.json" }

// Parse decodes a package.json. Workspaces may be given as an array or
// as an object with a packages array.
func (Npm) Parse(data []byte) (*Manifest, error) {
	var raw npmManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid package.json: %w", err)
	}

	m := &Manifest{Name: raw.Name}
	if raw.Version != "" {
		v, err := semver.StrictNewVersion(raw.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q of %s: %w", raw.Version, raw.Name, err)
		}
		m.Version = v
	}

	members, err := npmWorkspaces(raw.Workspaces)
	if err != nil {
		return nil, err
	}
	m.Members = members

	seen := make(map[string]bool)
	for _, table := range []map[string]string{
		raw.Dependencies, raw.DevDependencies, raw.PeerDependencies, raw.OptionalDependencies,
	} {
		names := make([]string, 0, len(table))
		for name := range table {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m.Dependencies = appendUnique(m.Dependencies, seen, name)
		}
	}

	return m, nil
}

func npmWorkspaces(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var object struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("invalid workspaces field: %w", err)
	}
	return object.Packages, nil
}

// npmSpan locates a string value in the document, quotes included.
type npmSpan struct {
	start, end int64
	value      string
}

// Rewrite splices new values into the document so that formatting, key
// order and unrelated content are preserved.
func (Npm) Rewrite(data []byte, version *semver.Version, deps domain.VersionMap) ([]byte, error) {
	own, requirements, err := scanNpm(data)
	if err != nil {
		return nil, err
	}

	type splice struct {
		span npmSpan
		text string
	}
	var splices []splice
	if version != nil && own != nil {
		splices = append(splices, splice{*own, version.String()})
	}
	for _, req := range requirements {
		next, ok := deps[req.name]
		if !ok {
			continue
		}
		if text, ok := requirement(req.span.value, next); ok {
			splices = append(splices, splice{req.span, text})
		}
	}
	sort.Slice(splices, func(i, j int) bool { return splices[i].span.start < splices[j].span.start })

	var out bytes.Buffer
	var pos int64
	for _, s := range splices {
		out.Write(data[pos:s.span.start])
		out.WriteString(strconv.Quote(s.text))
		pos = s.span.end
	}
	out.Write(data[pos:])
	return out.Bytes(), nil
}

type npmRequirement struct {
	name string
	span npmSpan
}

// scanNpm walks the top-level object and records the spans of the version
// field and of every string requirement in the dependency fields.
func scanNpm(data []byte) (*npmSpan, []npmRequirement, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	var own *npmSpan
	var requirements []npmRequirement
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, nil, err
		}

		switch {
		case key == "version":
			span, isString, err := valueSpan(dec, data)
			if err != nil {
				return nil, nil, err
			}
			if isString {
				own = &span
			}

		case isNpmDependencyField(key):
			reqs, err := scanRequirements(dec, data)
			if err != nil {
				return nil, nil, err
			}
			requirements = append(requirements, reqs...)

		default:
			if err := skipValue(dec); err != nil {
				return nil, nil, err
			}
		}
	}

	return own, requirements, nil
}

func scanRequirements(dec *json.Decoder, data []byte) ([]npmRequirement, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, skipRest(dec, tok)
	}

	var reqs []npmRequirement
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		span, isString, err := valueSpan(dec, data)
		if err != nil {
			return nil, err
		}
		if isString {
			reqs = append(reqs, npmRequirement{name: name, span: span})
		}
	}
	_, err = dec.Token()
	return reqs, err
}

// valueSpan reads the value following a key. For string values it
// returns the span of the literal; other values are skipped.
func valueSpan(dec *json.Decoder, data []byte) (npmSpan, bool, error) {
	start := dec.InputOffset()
	for start < int64(len(data)) && (isSpace(data[start]) || data[start] == ':') {
		start++
	}

	tok, err := dec.Token()
	if err != nil {
		return npmSpan{}, false, err
	}
	if s, ok := tok.(string); ok {
		return npmSpan{start: start, end: dec.InputOffset(), value: s}, true, nil
	}
	return npmSpan{}, false, skipRest(dec, tok)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isNpmDependencyField(key string) bool {
	for _, field := range npmDependencyFields {
		if key == field {
			return true
		}
	}
	return false
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid package.json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("invalid package.json: expected %q", want)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("invalid package.json: unexpected token %v", tok)
	}
	return s, nil
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	return skipRest(dec, tok)
}

// skipRest consumes the remainder of a value whose first token was tok.
func skipRest(dec *json.Decoder, tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok || d == '}' || d == ']' {
		return nil
	}
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
