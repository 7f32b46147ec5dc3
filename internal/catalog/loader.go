package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"psy-assess/internal/domain"
)

// ErrCatalogLoad se devuelve (envuelto) ante cualquier falla de carga o validación.
// Nunca se entrega un catálogo parcial.
var ErrCatalogLoad = errors.New("catalog load failed")

// Loader entrega catálogos por nombre.
type Loader interface {
	Load(ctx context.Context, name string) (*Catalog, error)
}

var catalogExts = []string{".yaml", ".yml"}

// FSLoader lee catálogos YAML desde una lista ordenada de fs.FS; el primero que
// contiene el nombre gana, así un directorio de overrides puede tapar al embebido.
type FSLoader struct {
	sources []fs.FS
	logger  *zap.Logger
}

func NewFSLoader(logger *zap.Logger, sources ...fs.FS) *FSLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSLoader{sources: sources, logger: logger}
}

func (l *FSLoader) Load(ctx context.Context, name string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogLoad, err)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: invalid catalog name %q", ErrCatalogLoad, name)
	}
	for i, src := range l.sources {
		for _, ext := range catalogExts {
			file := name + ext
			data, err := fs.ReadFile(src, file)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %v", ErrCatalogLoad, file, err)
			}
			cat, err := Parse(data)
			if err != nil {
				l.logger.Error("catalog rejected", zap.String("catalog", name), zap.Int("source", i), zap.Error(err))
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			l.logger.Info("catalog loaded",
				zap.String("catalog", name),
				zap.Int("source", i),
				zap.Int("categories", len(cat.Categories)),
				zap.Int("questions", cat.QuestionCount()),
			)
			return cat, nil
		}
	}
	return nil, fmt.Errorf("%w: catalog %q not found", ErrCatalogLoad, name)
}

// List devuelve los nombres de catálogo disponibles en todas las fuentes, sin repetir.
func (l *FSLoader) List() ([]string, error) {
	seen := make(map[string]struct{})
	for _, src := range l.sources {
		entries, err := fs.ReadDir(src, ".")
		if err != nil {
			return nil, fmt.Errorf("%w: list: %v", ErrCatalogLoad, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := path.Ext(e.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ext)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Parse decodifica y valida un catálogo. Los campos desconocidos son un error.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrCatalogLoad)
		}
		return nil, fmt.Errorf("%w: decode: %v", ErrCatalogLoad, err)
	}
	if err := validate(&cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogLoad, err)
	}
	cat.index()
	return &cat, nil
}

func validate(c *Catalog) error {
	if len(c.Categories) == 0 {
		return errors.New("no categories")
	}
	if len(c.Phases) == 0 {
		return errors.New("no phases")
	}
	cats := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.ID == "" {
			return errors.New("category without id")
		}
		if _, dup := cats[cat.ID]; dup {
			return fmt.Errorf("duplicate category %q", cat.ID)
		}
		switch cat.Gender {
		case domain.GenderUnset, domain.GenderMale, domain.GenderFemale:
		default:
			return fmt.Errorf("category %q: unknown gender %q", cat.ID, cat.Gender)
		}
		cats[cat.ID] = struct{}{}
	}
	for _, g := range c.Groups {
		if g.ID == "" {
			return errors.New("group without id")
		}
	}

	phases := make(map[int]struct{}, len(c.Phases))
	questions := make(map[string]struct{})
	for pi := range c.Phases {
		p := &c.Phases[pi]
		if p.Number < 1 || p.Number > domain.PhaseCount {
			return fmt.Errorf("phase number %d out of range 1..%d", p.Number, domain.PhaseCount)
		}
		if _, dup := phases[p.Number]; dup {
			return fmt.Errorf("duplicate phase %d", p.Number)
		}
		phases[p.Number] = struct{}{}
		if p.Target < 0 {
			return fmt.Errorf("phase %d: negative target", p.Number)
		}
		if len(p.Questions) > 0 && len(p.ByGender) > 0 {
			return fmt.Errorf("phase %d: questions and byGender are exclusive", p.Number)
		}
		for g := range p.ByGender {
			if g != domain.GenderMale && g != domain.GenderFemale {
				return fmt.Errorf("phase %d: unknown gender pool %q", p.Number, g)
			}
		}
		check := func(qs []domain.Question) error {
			for qi := range qs {
				q := &qs[qi]
				if q.Phase == 0 {
					q.Phase = p.Number
				}
				if err := validateQuestion(*q, p.Number); err != nil {
					return err
				}
				if _, dup := questions[q.ID]; dup {
					return fmt.Errorf("duplicate question %q", q.ID)
				}
				questions[q.ID] = struct{}{}
			}
			return nil
		}
		if err := check(p.Questions); err != nil {
			return err
		}
		for _, g := range []domain.Gender{domain.GenderMale, domain.GenderFemale} {
			if err := check(p.ByGender[g]); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateQuestion(q domain.Question, phase int) error {
	if q.ID == "" {
		return fmt.Errorf("phase %d: question without id", phase)
	}
	if q.Phase != phase {
		return fmt.Errorf("question %q: declares phase %d inside phase %d", q.ID, q.Phase, phase)
	}
	switch {
	case q.Type.IsSelection():
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q: %s without options", q.ID, q.Type)
		}
		for i, o := range q.Options {
			if o.Weight < 0 {
				return fmt.Errorf("question %q option %d: negative weight", q.ID, i)
			}
		}
	case q.Type.IsScale():
		if q.Scale < 0 || q.Scale == 1 {
			return fmt.Errorf("question %q: invalid scale %d", q.ID, q.Scale)
		}
	default:
		return fmt.Errorf("question %q: unknown type %q", q.ID, q.Type)
	}
	if q.IsRespectContext {
		if q.RespectContextKey != domain.RespectSocial && q.RespectContextKey != domain.RespectBusiness {
			return fmt.Errorf("question %q: unknown respect context %q", q.ID, q.RespectContextKey)
		}
		if q.RespectContextType != domain.RespectFeel && q.RespectContextType != domain.RespectDeference {
			return fmt.Errorf("question %q: unknown respect measure %q", q.ID, q.RespectContextType)
		}
		if !q.Type.IsScale() {
			return fmt.Errorf("question %q: respect context questions must be scaled", q.ID)
		}
	}
	if q.IsAspiration && !q.Type.IsSelection() {
		return fmt.Errorf("question %q: aspiration questions must offer options", q.ID)
	}
	return nil
}
