// Package serverlist models advertised game servers and their pipe separated line format.
package serverlist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinFields is the number of fields every server line carries.
	MinFields = 12

	fieldSeparator = "|"
)

// ParseLine decodes a single server line:
//
//	version|platform|compiled|title|ip|tech|map|tileset|active|network|connected|port[|country]
func ParseLine(line string) (Server, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), fieldSeparator)
	if len(fields) < MinFields {
		return Server{}, fmt.Errorf("%w: got %d, want at least %d", ErrMalformedLine, len(fields), MinFields)
	}

	s := Server{
		GlestVersion:      fields[0],
		Platform:          fields[1],
		BinaryCompileDate: fields[2],
		Title:             fields[3],
		IPAddress:         fields[4],
		Tech:              fields[5],
		Map:               fields[6],
		Tileset:           fields[7],
	}

	counts := []struct {
		name string
		dst  *int
		raw  string
	}{
		{"active slots", &s.ActiveSlots, fields[8]},
		{"network slots", &s.NetworkSlots, fields[9]},
		{"connected clients", &s.ConnectedClients, fields[10]},
	}
	for _, c := range counts {
		v, err := strconv.Atoi(strings.TrimSpace(c.raw))
		if err != nil || v < 0 {
			return Server{}, fmt.Errorf("%w: %s %q", ErrInvalidField, c.name, c.raw)
		}
		*c.dst = v
	}

	port, err := strconv.ParseUint(strings.TrimSpace(fields[11]), 10, 16)
	if err != nil {
		return Server{}, fmt.Errorf("%w: external port %q", ErrInvalidField, fields[11])
	}
	s.ExternalPort = int(port)

	if len(fields) > MinFields {
		s.Country = strings.TrimSpace(fields[12])
	}

	return s, nil
}

// Parse decodes a newline separated list of server lines. Blank lines and
// lines with too few fields are skipped. A line with the right shape but a
// malformed numeric field fails the whole list with its line number.
func Parse(text string) ([]Server, error) {
	var servers []Server
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := ParseLine(line)
		if errors.Is(err, ErrMalformedLine) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		servers = append(servers, s)
	}
	return servers, nil
}

// Line encodes s in the format read by ParseLine. Separators inside text
// fields are replaced with spaces.
func (s Server) Line() string {
	fields := []string{
		clean(s.GlestVersion),
		clean(s.Platform),
		clean(s.BinaryCompileDate),
		clean(s.Title),
		clean(s.IPAddress),
		clean(s.Tech),
		clean(s.Map),
		clean(s.Tileset),
		strconv.Itoa(s.ActiveSlots),
		strconv.Itoa(s.NetworkSlots),
		strconv.Itoa(s.ConnectedClients),
		strconv.Itoa(s.ExternalPort),
	}
	if s.Country != "" {
		fields = append(fields, clean(s.Country))
	}
	return strings.Join(fields, fieldSeparator)
}

var separatorReplacer = strings.NewReplacer(fieldSeparator, " ", "\n", " ", "\r", " ")

func clean(field string) string {
	return separatorReplacer.Replace(field)
}
