// Package archivebuild is the asset-merging glue spec §1/§6 calls out
// as an external collaborator and explicitly out of scope for the
// codec's own correctness: it decodes a base archive, layers each
// mod's asset directory over it by name (last write wins, per spec
// §3's "callers treat the list as a map keyed by name"), and splices
// each mod's extra-resources fragment into the base manifest record,
// mirroring original_source/src/main.rs's merge loop.
package archivebuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnforge/pvzloader/internal/assets"
	"github.com/lawnforge/pvzloader/internal/manifest"
	"github.com/lawnforge/pvzloader/internal/pak"
)

// ManifestRecordName is the record the original splices mod resource
// fragments into (original_source/src/main.rs: "properties\resources.xml").
const ManifestRecordName = `properties\resources.xml`

// ExtraResourcesFile is the per-mod fragment file the original reads
// from each mod's directory and splices into ManifestRecordName.
const ExtraResourcesFile = "extra_resources.xml"

// AssetsSubdir is the per-mod subdirectory walked for archive records,
// matching original_source/src/main.rs's mod_folder.join("assets").
const AssetsSubdir = "assets"

// Options controls how Build merges a base archive with a list of mod
// directories.
type Options struct {
	Walker  assets.Walker
	Splicer manifest.Splicer
}

func (o Options) walker() assets.Walker {
	if o.Walker != nil {
		return o.Walker
	}
	return assets.DirWalker{}
}

func (o Options) splicer() manifest.Splicer {
	if o.Splicer != nil {
		return o.Splicer
	}
	return manifest.RootElementSplicer{}
}

// Build decodes basePakPath, layers each directory in modDirs over it
// in order (assets/ subdirectory for records, extra_resources.xml
// spliced into ManifestRecordName if present), and returns the merged
// Archive along with its encoded bytes.
func Build(basePakPath string, modDirs []string, opts Options) (pak.Archive, []byte, error) {
	raw, err := os.ReadFile(basePakPath)
	if err != nil {
		return pak.Archive{}, nil, fmt.Errorf("archivebuild: read base pak %s: %w", basePakPath, err)
	}

	archive, err := pak.Decode(raw)
	if err != nil {
		return pak.Archive{}, nil, fmt.Errorf("archivebuild: decode base pak %s: %w", basePakPath, err)
	}

	index := make(map[string]int, len(archive.Records))
	for i, r := range archive.Records {
		index[r.Name] = i
	}

	upsert := func(rec pak.Record) {
		if i, ok := index[rec.Name]; ok {
			archive.Records[i] = rec
			return
		}
		index[rec.Name] = len(archive.Records)
		archive.Records = append(archive.Records, rec)
	}

	w := opts.walker()
	s := opts.splicer()

	for _, modDir := range modDirs {
		fragmentPath := filepath.Join(modDir, ExtraResourcesFile)
		if fragment, err := os.ReadFile(fragmentPath); err == nil {
			i, ok := index[ManifestRecordName]
			if !ok {
				return pak.Archive{}, nil, fmt.Errorf("archivebuild: base pak has no %q record to splice %s into", ManifestRecordName, fragmentPath)
			}
			spliced, err := s.Splice(archive.Records[i].Data, fragment)
			if err != nil {
				return pak.Archive{}, nil, fmt.Errorf("archivebuild: splice %s: %w", fragmentPath, err)
			}
			archive.Records[i].Data = spliced
		} else if !os.IsNotExist(err) {
			return pak.Archive{}, nil, fmt.Errorf("archivebuild: read %s: %w", fragmentPath, err)
		}

		assetRoot := filepath.Join(modDir, AssetsSubdir)
		if _, err := os.Stat(assetRoot); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return pak.Archive{}, nil, fmt.Errorf("archivebuild: stat %s: %w", assetRoot, err)
		}

		if err := w.Walk(assetRoot, func(rec pak.Record) error {
			upsert(rec)
			return nil
		}); err != nil {
			return pak.Archive{}, nil, fmt.Errorf("archivebuild: walk %s: %w", assetRoot, err)
		}
	}

	encoded, err := pak.Encode(archive)
	if err != nil {
		return pak.Archive{}, nil, fmt.Errorf("archivebuild: encode merged archive: %w", err)
	}

	return archive, encoded, nil
}
