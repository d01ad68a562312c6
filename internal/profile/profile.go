// Package profile loads the flat company profile used by the verdict agent
// and the proposal generator.
package profile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rfpassist/internal/domain"
)

// Entry is one key/value pair of the profile.
type Entry struct {
	Key   string
	Value string
	raw   json.RawMessage
}

// Profile is an ordered key/value mapping. The zero value is empty.
type Profile struct {
	entries []Entry
	index   map[string]int
}

// Load reads a profile from a .csv or .json file.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	}
	return nil, fmt.Errorf("%w: profile %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadCSV skips the header row and takes the first two columns of every
// row that has at least two.
func ReadCSV(r io.Reader) (*Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	p := &Profile{}
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read profile csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		p.Set(strings.TrimPrefix(row[0], "\uFEFF"), row[1])
	}
	return p, nil
}

// ReadJSON reads a JSON object, keeping its key order. Non-string values
// are kept as compact JSON text.
func ReadJSON(r io.Reader) (*Profile, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read profile json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("read profile json: top level is not an object")
	}
	p := &Profile{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read profile json: %w", err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read profile json: %w", err)
		}
		p.setRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read profile json: %w", err)
	}
	return p, nil
}

// Set adds or replaces a string value. Replaced keys keep their position.
func (p *Profile) Set(key, value string) {
	raw, _ := json.Marshal(value)
	p.put(Entry{Key: key, Value: value, raw: raw})
}

func (p *Profile) setRaw(key string, raw json.RawMessage) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		p.put(Entry{Key: key, Value: s, raw: raw})
		return
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	p.put(Entry{Key: key, Value: buf.String(), raw: raw})
}

func (p *Profile) put(e Entry) {
	if p.index == nil {
		p.index = map[string]int{}
	}
	if i, ok := p.index[e.Key]; ok {
		p.entries[i] = e
		return
	}
	p.index[e.Key] = len(p.entries)
	p.entries = append(p.entries, e)
}

// Len returns the number of entries.
func (p *Profile) Len() int { return len(p.entries) }

// Has reports whether key is present.
func (p *Profile) Has(key string) bool {
	_, ok := p.index[key]
	return ok
}

// Get returns the value for key, or fallback when the key is absent.
func (p *Profile) Get(key, fallback string) string {
	if i, ok := p.index[key]; ok {
		return p.entries[i].Value
	}
	return fallback
}

// WithPrefix returns the entries whose key starts with prefix, in load order.
func (p *Profile) WithPrefix(prefix string) []Entry {
	var out []Entry
	for _, e := range p.entries {
		if strings.HasPrefix(e.Key, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// JSON renders the profile as an indented JSON object with sorted keys.
func (p *Profile) JSON() string {
	m := make(map[string]json.RawMessage, len(p.entries))
	for _, e := range p.entries {
		m[e.Key] = e.raw
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
