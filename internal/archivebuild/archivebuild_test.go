package archivebuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawnforge/pvzloader/internal/pak"
)

func writeBasePak(t *testing.T, path string, archive pak.Archive) {
	t.Helper()
	encoded, err := pak.Encode(archive)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func baseArchive() pak.Archive {
	return pak.Archive{Records: []pak.Record{
		{Name: ManifestRecordName, Data: []byte(`<ResourceManifest></ResourceManifest>`)},
		{Name: `images\lawnmower.png`, Data: []byte{0x01, 0x02}},
	}}
}

func TestBuildLayersAssetsOverBase(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "main.pak")
	writeBasePak(t, basePath, baseArchive())

	modDir := filepath.Join(dir, "mymod")
	assetsDir := filepath.Join(modDir, AssetsSubdir)
	if err := os.MkdirAll(filepath.Join(assetsDir, "images"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Overwrite an existing record...
	if err := os.WriteFile(filepath.Join(assetsDir, "images", "lawnmower.png"), []byte{0xAA}, 0o644); err != nil {
		t.Fatalf("write overwrite asset: %v", err)
	}
	// ...and add a brand new one.
	if err := os.WriteFile(filepath.Join(assetsDir, "new.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write new asset: %v", err)
	}

	archive, encoded, err := Build(basePath, []string{modDir}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatalf("Build returned empty encoded archive")
	}

	byName := map[string]pak.Record{}
	for _, r := range archive.Records {
		byName[r.Name] = r
	}

	mower, ok := byName[`images\lawnmower.png`]
	if !ok || len(mower.Data) != 1 || mower.Data[0] != 0xAA {
		t.Fatalf("overwritten record = %+v, want 1-byte 0xAA", mower)
	}
	newRec, ok := byName["new.txt"]
	if !ok || string(newRec.Data) != "hi" {
		t.Fatalf("new record = %+v, want data %q", newRec, "hi")
	}
	if len(archive.Records) != 3 {
		t.Fatalf("record count = %d, want 3 (manifest + overwritten + new)", len(archive.Records))
	}
}

func TestBuildSplicesExtraResources(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "main.pak")
	writeBasePak(t, basePath, baseArchive())

	modDir := filepath.Join(dir, "mymod")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fragment := `<Texture name="modcard"/>`
	if err := os.WriteFile(filepath.Join(modDir, ExtraResourcesFile), []byte(fragment), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}

	archive, _, err := Build(basePath, []string{modDir}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var manifestData string
	for _, r := range archive.Records {
		if r.Name == ManifestRecordName {
			manifestData = string(r.Data)
		}
	}
	want := fragment + "</ResourceManifest>"
	if !strings.Contains(manifestData, want) {
		t.Fatalf("manifest = %q, want to contain %q", manifestData, want)
	}
}

func TestBuildMissingAssetsDirIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "main.pak")
	writeBasePak(t, basePath, baseArchive())

	modDir := filepath.Join(dir, "emptymod")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	archive, _, err := Build(basePath, []string{modDir}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(archive.Records) != 2 {
		t.Fatalf("record count = %d, want 2 (base unchanged)", len(archive.Records))
	}
}

func TestBuildMissingManifestRecordErrorsOnSplice(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "main.pak")
	writeBasePak(t, basePath, pak.Archive{Records: []pak.Record{
		{Name: "other.txt", Data: []byte("x")},
	}})

	modDir := filepath.Join(dir, "mymod")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(modDir, ExtraResourcesFile), []byte("<X/>"), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}

	if _, _, err := Build(basePath, []string{modDir}, Options{}); err == nil {
		t.Fatalf("Build() = nil error, want error for missing manifest record")
	}
}
