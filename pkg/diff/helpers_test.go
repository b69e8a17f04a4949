package diff

import (
	"bytes"
	"context"
	binenc "encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/ddiff/pkg/cab"
	"github.com/sdejongh/ddiff/pkg/storage"
)

// TestHelper provides two scratch trees and a diff environment
type TestHelper struct {
	t        *testing.T
	tempDir  string
	leftDir  string
	rightDir string
	env      *Env
}

// NewTestHelper creates a new diff test helper
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ddiff-diff-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	leftDir := filepath.Join(tempDir, "left")
	rightDir := filepath.Join(tempDir, "right")
	for _, dir := range []string{leftDir, rightDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	scope, err := storage.NewTempScope(tempDir, nil)
	if err != nil {
		t.Fatalf("failed to create temp scope: %v", err)
	}

	return &TestHelper{
		t:        t,
		tempDir:  tempDir,
		leftDir:  leftDir,
		rightDir: rightDir,
		env:      NewEnv(scope, nil, Options{}),
	}
}

// Cleanup removes all temporary files
func (h *TestHelper) Cleanup() {
	h.env.Temp.Close()
	os.RemoveAll(h.tempDir)
}

func (h *TestHelper) write(dir, name string, content []byte) string {
	h.t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// CreateLeftFile creates a file in the left tree
func (h *TestHelper) CreateLeftFile(name string, content []byte) string {
	h.t.Helper()
	return h.write(h.leftDir, name, content)
}

// CreateRightFile creates a file in the right tree
func (h *TestHelper) CreateRightFile(name string, content []byte) string {
	h.t.Helper()
	return h.write(h.rightDir, name, content)
}

// CreateCabinet writes an MSZIP cabinet holding name/content pairs
func (h *TestHelper) CreateCabinet(path string, members ...string) string {
	h.t.Helper()
	var entries []cab.Entry
	for i := 0; i+1 < len(members); i += 2 {
		entries = append(entries, cab.Entry{Name: members[i], Data: []byte(members[i+1])})
	}
	var buf bytes.Buffer
	if err := cab.Write(&buf, entries, cab.CompressMSZIP); err != nil {
		h.t.Fatalf("failed to build cabinet: %v", err)
	}
	return h.write(filepath.Dir(path), filepath.Base(path), buf.Bytes())
}

// Diff runs the selected engine over a and b
func (h *TestHelper) Diff(a, b string) (bool, string) {
	h.t.Helper()
	engine := h.env.Registry.Select(h.env, a, b)
	if engine == nil {
		h.t.Fatalf("no engine for %s and %s", a, b)
	}
	r := NewReport()
	differs, err := engine.Diff(testContext(h.t), h.env, a, b, r)
	if err != nil {
		h.t.Fatalf("Diff() error = %v", err)
	}
	return differs, r.String()
}

// AssertNoTempArtifacts fails if any temp file outlived its comparison
func (h *TestHelper) AssertNoTempArtifacts() {
	h.t.Helper()
	if live := h.env.Temp.Live(); len(live) != 0 {
		h.t.Errorf("temp artifacts left behind: %v", live)
	}
	entries, err := os.ReadDir(h.env.Temp.Dir())
	if err != nil {
		h.t.Fatalf("failed to list temp scope: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		h.t.Errorf("temp scope not empty: %s", strings.Join(names, ", "))
	}
}

// peImage builds a minimal PE image whose only section is a .rsrc holding a
// VS_VERSION_INFO with the given file version, followed by payload
func peImage(version [4]uint16, payload []byte) []byte {
	le := binenc.LittleEndian

	rsrc := []byte{0x34, 0x03, 0x34, 0x00, 0x00, 0x00}
	for _, r := range "VS_VERSION_INFO" {
		rsrc = append(rsrc, byte(r), 0)
	}
	rsrc = append(rsrc, 0, 0, 0, 0)
	info := make([]byte, 52)
	le.PutUint32(info[0:], 0xFEEF04BD)
	le.PutUint32(info[4:], 0x00010000)
	le.PutUint32(info[8:], uint32(version[0])<<16|uint32(version[1]))
	le.PutUint32(info[12:], uint32(version[2])<<16|uint32(version[3]))
	rsrc = append(rsrc, info...)
	rsrc = append(rsrc, payload...)

	// DOS stub, PE signature at 0x40, file header at 0x44, section header at 0x58
	const rawOffset = 0x80
	img := make([]byte, rawOffset, rawOffset+len(rsrc))
	copy(img, "MZ")
	le.PutUint32(img[0x3c:], 0x40)
	copy(img[0x40:], "PE\x00\x00")
	le.PutUint16(img[0x44:], 0x8664)
	le.PutUint16(img[0x46:], 1)
	copy(img[0x58:], ".rsrc")
	le.PutUint32(img[0x58+8:], uint32(len(rsrc)))
	le.PutUint32(img[0x58+12:], 0x1000)
	le.PutUint32(img[0x58+16:], uint32(len(rsrc)))
	le.PutUint32(img[0x58+20:], rawOffset)
	return append(img, rsrc...)
}

// binary returns content that never scores as text
func binary(s string) []byte {
	return append([]byte{0xFF, 0xFE}, s...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
