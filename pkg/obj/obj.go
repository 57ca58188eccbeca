// Package obj reads and writes triangle meshes in Wavefront OBJ format.
//
// Only geometry is kept: vertex positions and faces. Texture coordinates,
// normals, groups and materials are skipped on read. Polygons are split
// into triangle fans.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/qem/pkg/math"
)

// OBJ format errors.
var (
	ErrMalformed    = errors.New("malformed OBJ")
	ErrBadReference = errors.New("vertex reference out of range")
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []math.Vec3
	Triangles [][3]int
	// Normals is optional; when set it holds one normal per triangle and
	// is written as vn records.
	Normals []math.Vec3
}

// Read parses an OBJ stream.
func Read(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	var face []int
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrMalformed, line)
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
				}
				c[i] = f
			}
			m.Vertices = append(m.Vertices, math.Vec3{X: c[0], Y: c[1], Z: c[2]})

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrMalformed, line)
			}
			face = face[:0]
			for _, ref := range fields[1:] {
				idx, err := parseRef(ref, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				m.Triangles = append(m.Triangles, [3]int{face[0], face[i], face[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return m, nil
}

// parseRef resolves a face vertex reference ("7", "7/2", "7//3", "-1/...")
// to a zero-based index into the vertices read so far.
func parseRef(ref string, count int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: bad vertex reference %q", ErrMalformed, ref)
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("%w: %d with %d vertices", ErrBadReference, n, count)
	}
}

// Write encodes m as OBJ.
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)

	writeVec := func(tag string, v math.Vec3) {
		bw.WriteString(tag)
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}

	for _, v := range m.Vertices {
		writeVec("v", v)
	}

	withNormals := len(m.Normals) == len(m.Triangles) && len(m.Normals) > 0
	if withNormals {
		for _, n := range m.Normals {
			writeVec("vn", n)
		}
	}

	for i, t := range m.Triangles {
		if withNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", t[0]+1, i+1, t[1]+1, i+1, t[2]+1, i+1)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", t[0]+1, t[1]+1, t[2]+1)
		}
	}
	return bw.Flush()
}

// ReadFile parses the OBJ file at path.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
