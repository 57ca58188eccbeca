package obj

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/qem/pkg/math"
)

const quad = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
s off
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader(quad))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(m.Vertices) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(m.Vertices))
	}
	if m.Vertices[2] != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("vertex 2 = %v", m.Vertices[2])
	}

	want := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if len(m.Triangles) != len(want) {
		t.Fatalf("expected %d triangles, got %d", len(want), len(m.Triangles))
	}
	for i := range want {
		if m.Triangles[i] != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, m.Triangles[i], want[i])
		}
	}
}

func TestReadReferenceForms(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2/2 -1\n"
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(m.Triangles) != 1 || m.Triangles[0] != [3]int{0, 1, 2} {
		t.Errorf("triangles = %v", m.Triangles)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"short vertex", "v 1 2\n", ErrMalformed},
		{"bad coordinate", "v 1 x 2\n", ErrMalformed},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrMalformed},
		{"bad reference", "v 0 0 0\nf a b c\n", ErrMalformed},
		{"forward reference", "v 0 0 0\nv 1 0 0\nf 1 2 3\nv 0 1 0\n", ErrBadReference},
		{"zero reference", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrBadReference},
		{"negative overflow", "v 0 0 0\nf -1 -2 -3\n", ErrBadReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	in := &Mesh{
		Vertices: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1.5, Y: -2.25, Z: 1e-7},
			{X: 0.1, Y: 0.2, Z: 0.3},
		},
		Triangles: [][3]int{{0, 1, 2}},
		Normals:   []math.Vec3{{Z: 1}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, in); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "f 1//1 2//1 3//1") {
		t.Errorf("faces should reference normals:\n%s", buf.String())
	}

	out, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	for i := range in.Vertices {
		if out.Vertices[i] != in.Vertices[i] {
			t.Errorf("vertex %d = %v, want %v", i, out.Vertices[i], in.Vertices[i])
		}
	}
	if len(out.Triangles) != 1 || out.Triangles[0] != in.Triangles[0] {
		t.Errorf("triangles = %v", out.Triangles)
	}
}

func TestWriteWithoutNormals(t *testing.T) {
	m := &Mesh{
		Vertices:  []math.Vec3{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if strings.Contains(buf.String(), "vn") {
		t.Error("unexpected vn records")
	}
	if !strings.Contains(buf.String(), "f 1 2 3\n") {
		t.Errorf("missing face record:\n%s", buf.String())
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	m, err := Read(strings.NewReader(quad))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(back.Vertices) != 4 || len(back.Triangles) != 2 {
		t.Errorf("got %d vertices / %d triangles", len(back.Vertices), len(back.Triangles))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error for missing file")
	}
}
