package program

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/ellie-vm/errors"
)

// ModuleMap ties a module name to the path it was compiled from.
type ModuleMap struct {
	Name string
	Path string
}

// Position is a source line and column.
type Position struct {
	Line   int
	Column int
}

// DebugHeader maps an instruction range back to a named source item.
type DebugHeader struct {
	Module     string
	Name       string
	Start      int
	End        int
	RangeStart Position
	RangeEnd   Position
	Hash       uint64
}

// DebugInfo is the parsed debug sidecar of a program.
type DebugInfo struct {
	Modules []ModuleMap
	Headers []DebugHeader
}

const debugSeparator = "---"

// ParseDebugInfo reads the text sidecar: "name: path" module lines, a "---"
// separator, then one colon separated header per line.
func ParseDebugInfo(r io.Reader) (*DebugInfo, error) {
	info := &DebugInfo{}
	sc := bufio.NewScanner(r)
	line := 0
	headers := false

	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if !headers {
			if text == debugSeparator {
				headers = true
				continue
			}
			if text == "" {
				continue
			}
			name, path, ok := strings.Cut(text, ": ")
			if !ok {
				return nil, debugError(line, "module line %q lacks \": \"", text)
			}
			path = strings.TrimSpace(path)
			if path == "-" {
				path = ""
			}
			info.Modules = append(info.Modules, ModuleMap{Name: name, Path: path})
			continue
		}
		if text == "" {
			continue
		}
		h, err := parseHeader(text)
		if err != nil {
			return nil, debugError(line, "%v", err)
		}
		info.Headers = append(info.Headers, h)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.ParseFailed(errors.PhaseDebug, "debug info", err)
	}
	if !headers && len(info.Modules) > 0 {
		return nil, debugError(line, "missing %q separator", debugSeparator)
	}
	return info, nil
}

func debugError(line int, format string, args ...any) error {
	return errors.InvalidData(errors.PhaseDebug, []string{"line " + strconv.Itoa(line)}, fmt.Sprintf(format, args...))
}

// parseHeader splits start:end:module:name:rsl:rsc:rel:rec:hash. Names may
// themselves contain colons, so fields are taken from both ends.
func parseHeader(text string) (DebugHeader, error) {
	parts := strings.Split(text, ":")
	if len(parts) < 9 {
		return DebugHeader{}, errors.InvalidInput(errors.PhaseDebug, "header needs 9 fields, got "+strconv.Itoa(len(parts)))
	}
	tail := parts[len(parts)-5:]
	nums := make([]int, 0, 6)
	for _, f := range []string{parts[0], parts[1], tail[0], tail[1], tail[2], tail[3]} {
		n, err := strconv.Atoi(f)
		if err != nil {
			return DebugHeader{}, errors.ParseFailed(errors.PhaseDebug, "header field", err)
		}
		nums = append(nums, n)
	}
	hash, err := strconv.ParseUint(tail[4], 10, 64)
	if err != nil {
		return DebugHeader{}, errors.ParseFailed(errors.PhaseDebug, "header hash", err)
	}
	return DebugHeader{
		Start:      nums[0],
		End:        nums[1],
		Module:     parts[2],
		Name:       strings.Join(parts[3:len(parts)-5], ":"),
		RangeStart: Position{Line: nums[2], Column: nums[3]},
		RangeEnd:   Position{Line: nums[4], Column: nums[5]},
		Hash:       hash,
	}, nil
}

// WriteTo renders the sidecar. There is no newline after the last header.
func (d *DebugInfo) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, m := range d.Modules {
		path := m.Path
		if path == "" {
			path = "-"
		}
		b.WriteString(m.Name + ": " + path + "\n")
	}
	b.WriteString(debugSeparator + "\n")
	for i, h := range d.Headers {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join([]string{
			strconv.Itoa(h.Start),
			strconv.Itoa(h.End),
			h.Module,
			h.Name,
			strconv.Itoa(h.RangeStart.Line),
			strconv.Itoa(h.RangeStart.Column),
			strconv.Itoa(h.RangeEnd.Line),
			strconv.Itoa(h.RangeEnd.Column),
			strconv.FormatUint(h.Hash, 10),
		}, ":"))
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// HeaderAt returns the narrowest header whose instruction range contains pos.
func (d *DebugInfo) HeaderAt(pos int) (DebugHeader, bool) {
	if d == nil {
		return DebugHeader{}, false
	}
	var best DebugHeader
	found := false
	for _, h := range d.Headers {
		if pos < h.Start || pos > h.End {
			continue
		}
		if !found || h.End-h.Start < best.End-best.Start {
			best = h
			found = true
		}
	}
	return best, found
}

// HeaderByHash returns the header describing the item with the given hash.
func (d *DebugInfo) HeaderByHash(hash uint64) (DebugHeader, bool) {
	if d == nil {
		return DebugHeader{}, false
	}
	for _, h := range d.Headers {
		if h.Hash == hash {
			return h, true
		}
	}
	return DebugHeader{}, false
}
