// Package beans renders surfaces into numbered markdown requirement
// records with checkpointed, resumable writes.
package beans

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"harvester/internal/logging"
	"harvester/internal/runstate"
	"harvester/internal/surface"
)

// BeansDir is the subdirectory of the output tree that receives bean
// files.
const BeansDir = "beans"

// WrittenBean records the outcome for one surface position. Exactly one
// exists per surface, immutable within a run.
type WrittenBean struct {
	BeanNumber  int
	BeanID      string
	Slug        string
	SurfaceType surface.Type
	Title       string
	Path        string
	Skipped     bool
}

// Writer renders beans into the output tree.
type Writer struct {
	outputDir string
	logger    *slog.Logger
}

// NewWriter constructs a bean writer rooted at outputDir.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "beans"),
	}
}

// BeanID formats the 1-based position as a bean identifier.
func BeanID(beanNumber int) string {
	return fmt.Sprintf("BEAN-%03d", beanNumber)
}

// BeanPath derives the relative bean file path for a surface position.
func BeanPath(beanNumber int, slug string) string {
	return filepath.Join(BeansDir, fmt.Sprintf("%s-%s.md", BeanID(beanNumber), slug))
}

// WriteBeans renders one bean per surface in the collection's fixed
// order. Positions already checkpointed by a prior attempt are skipped
// without touching the file. The checkpoint is recorded only after the
// file write succeeds; a crash between write and checkpoint is safe
// because the same path is re-derived and overwritten on resume.
func (w *Writer) WriteBeans(ctx context.Context, collection *surface.Collection, state *runstate.Manager) ([]WrittenBean, error) {
	if err := os.MkdirAll(filepath.Join(w.outputDir, BeansDir), 0o755); err != nil {
		return nil, fmt.Errorf("create beans directory: %w", err)
	}

	surfaces := collection.Ordered()
	written := make([]WrittenBean, 0, len(surfaces))

	for i, s := range surfaces {
		n := i + 1
		slug := Slugify(s.Name)
		bean := WrittenBean{
			BeanNumber:  n,
			BeanID:      BeanID(n),
			Slug:        slug,
			SurfaceType: s.Type,
			Title:       Title(s),
			Path:        BeanPath(n, slug),
		}

		if state.ShouldSkipBean(n) {
			bean.Skipped = true
			written = append(written, bean)
			w.logger.Debug("bean already written, skipping",
				logging.String(logging.FieldBean, bean.BeanID))
			continue
		}

		body, err := Render(bean.BeanID, s)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", bean.BeanID, err)
		}

		fullPath := filepath.Join(w.outputDir, bean.Path)
		if err := os.WriteFile(fullPath, []byte(body), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", bean.Path, err)
		}
		if err := state.RecordBean(ctx, n, bean.BeanID, bean.Path); err != nil {
			return written, fmt.Errorf("checkpoint %s: %w", bean.BeanID, err)
		}

		written = append(written, bean)
		w.logger.Debug("bean written",
			logging.String(logging.FieldBean, bean.BeanID),
			logging.String("path", bean.Path))
	}

	return written, nil
}
