package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"certdesign/internal/assets"
	"certdesign/internal/config"
	"certdesign/internal/designer"
	"certdesign/internal/document"
	"certdesign/internal/export"
	"certdesign/internal/presets"
	"certdesign/internal/render"
	"certdesign/internal/resolve"
	"certdesign/internal/server"
	"certdesign/internal/storage"
	"certdesign/internal/storage/draft"
	"certdesign/internal/storage/postgres"
	"certdesign/internal/storage/sqlite"
	"certdesign/internal/tui"
	"certdesign/internal/verify"
)

// backend is a storage.Store that can report its health.
type backend interface {
	storage.Store
	Ping(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (backend, error) {
	if cfg.PostgresDSN != "" {
		s, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := sqlite.New(ctx, cfg.SavePath(cfg.Database))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newRenderer builds the renderer with the configured fonts. Remote fonts
// are awaited when wait is set; otherwise they arrive in the background and
// the fallback is used until then.
func newRenderer(ctx context.Context, cfg *config.Config, log *slog.Logger, wait bool) (*render.Renderer, error) {
	fonts, err := assets.NewFonts(log)
	if err != nil {
		return nil, err
	}
	if cfg.FontDir != "" {
		if err := fonts.RegisterDir(cfg.FontDir); err != nil {
			log.Warn("font directory not loaded", "dir", cfg.FontDir, "err", err)
		}
	}
	if wait {
		fonts.Preload(ctx, cfg.FontURLs)
	} else {
		for key, url := range cfg.FontURLs {
			name, style := assets.ParseFontName(key)
			fonts.Fetch(ctx, name, style, url)
		}
	}
	loader := assets.NewLoader(
		assets.WithLoaderLogger(log),
		assets.WithTimeout(cfg.AssetTimeout),
	)
	return render.New(render.WithLogger(log), render.WithFonts(fonts), render.WithImages(loader))
}

// reportFonts logs the families a design uses that are not installed.
func reportFonts(r *render.Renderer, log *slog.Logger, families []string) {
	for _, family := range families {
		if !r.Fonts().Has(family) {
			log.Warn("font not installed, using fallback", "family", family)
		}
	}
}

func closeStore(store storage.Store, log *slog.Logger) {
	if err := store.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}

func runDesign(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("design", flag.ExitOnError)
	templateID := fs.String("template", "", "Template id to open; a new template is created when empty or unknown")
	orgID := fs.String("org", "default", "Organization owning a new template")
	name := fs.String("name", "Untitled certificate", "Name of a new template")
	badge := fs.Bool("badge", false, "Start a new template on the badge canvas")
	preset := fs.String("preset", "", "Start a new template from a preset")
	restore := fs.Bool("restore", false, "Restore the unsaved draft instead of the stored template")
	fs.Parse(args)

	logFile, err := os.OpenFile(cfg.SavePath("certdesign.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := cfg.Logger(logFile)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	drafts, err := draft.New(ctx, cfg.SavePath(cfg.DraftPath), draft.WithMaxBytes(cfg.DraftMaxBytes))
	if err != nil {
		return err
	}
	defer drafts.Close()

	r, err := newRenderer(ctx, cfg, log, false)
	if err != nil {
		return err
	}

	saved, err := drafts.Load(ctx)
	hasDraft := err == nil
	if err != nil && !errors.Is(err, draft.ErrNoDraft) {
		log.Warn("draft not readable", "err", err)
	}
	if hasDraft && !*restore {
		fmt.Fprintln(os.Stderr, "An unsaved draft exists; run with -restore to recover it. Continuing replaces it.")
	}

	ds := designer.New(
		designer.WithLogger(log),
		designer.WithHistoryDepth(cfg.HistoryDepth),
		designer.WithSnapThreshold(cfg.SnapThreshold),
		designer.WithDraftStore(drafts),
	)

	tpl, err := store.Get(ctx, *templateID)
	switch {
	case err == nil:
		reportFonts(r, log, ds.Load(tpl.Design, tpl.Governance))
	case errors.Is(err, storage.ErrTemplateNotFound):
		id := *templateID
		if id == "" {
			id = uuid.NewString()
		}
		tpl = &storage.Template{ID: id, OrganizationID: *orgID, Name: *name, Title: *name}
		switch {
		case *preset != "":
			p, err := presets.Get(*preset)
			if err != nil {
				return err
			}
			reportFonts(r, log, ds.Load(p.Design, document.DefaultGovernance()))
		case *badge:
			ds.SetDesignType(document.DesignBadge)
		}
	default:
		return err
	}

	if hasDraft && *restore {
		reportFonts(r, log, ds.RestoreDraft(saved))
	}

	return tui.Run(tui.Options{
		Store:         ds,
		Renderer:      r,
		Templates:     store,
		Template:      tpl,
		Drafts:        drafts,
		SavePath:      cfg.SavePath,
		Confirmations: cfg.Confirmations,
		Log:           log,
	})
}

// source names where a design comes from: a stored template or a design
// JSON file.
type source struct {
	templateID string
	file       string
	dataFile   string
}

func (s *source) register(fs *flag.FlagSet) {
	fs.StringVar(&s.templateID, "template", "", "Template id")
	fs.StringVar(&s.file, "file", "", "Design JSON file")
	fs.StringVar(&s.dataFile, "data", "", "JSON object of values for {{tokens}} and field bindings")
}

// design loads the design and applies the data bag. Without a bag the
// placeholder data is used.
func (s *source) design(ctx context.Context, cfg *config.Config) (document.Design, error) {
	var d document.Design
	switch {
	case s.file != "":
		data, err := os.ReadFile(s.file)
		if err != nil {
			return d, err
		}
		if d, err = document.Unmarshal(data); err != nil {
			return d, fmt.Errorf("%s: %w", s.file, err)
		}
	case s.templateID != "":
		store, err := openStore(ctx, cfg)
		if err != nil {
			return d, err
		}
		defer store.Close()
		tpl, err := store.Get(ctx, s.templateID)
		if err != nil {
			return d, err
		}
		d = tpl.Design
	default:
		return d, errors.New("one of -template or -file is required")
	}

	bag := document.DefaultPlaceholderData()
	if s.dataFile != "" {
		data, err := os.ReadFile(s.dataFile)
		if err != nil {
			return d, err
		}
		bag = map[string]string{}
		if err := json.Unmarshal(data, &bag); err != nil {
			return d, fmt.Errorf("%s: %w", s.dataFile, err)
		}
	}
	return resolve.Resolve(d, bag), nil
}

func runRender(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var src source
	src.register(fs)
	out := fs.String("o", "preview.png", "Output PNG file")
	width := fs.Int("width", 0, "Maximum preview width in pixels; 0 renders at design size")
	fs.Parse(args)

	log := cfg.Logger(os.Stderr)
	d, err := src.design(ctx, cfg)
	if err != nil {
		return err
	}
	r, err := newRenderer(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	reportFonts(r, log, d.FontFamilies())
	if err := r.Images().Preload(ctx, render.Sources(d)...); err != nil {
		return err
	}

	f, err := os.Create(cfg.SavePath(*out))
	if err != nil {
		return err
	}
	defer f.Close()

	if *width > 0 {
		err = export.PNG(f, r.Thumbnail(d, *width))
	} else {
		err = export.PNG(f, r.Render(d, render.Options{Mode: render.Preview}))
	}
	if err != nil {
		return err
	}
	fmt.Println(f.Name())
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var src source
	src.register(fs)
	certificateID := fs.String("cert", "", "Export an issued certificate by its public id")
	out := fs.String("o", "certificate.pdf", "Output file; .png writes an image, anything else a PDF")
	fs.Parse(args)

	log := cfg.Logger(os.Stderr)
	r, err := newRenderer(ctx, cfg, log, true)
	if err != nil {
		return err
	}

	path := cfg.SavePath(*out)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if *certificateID != "" {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore(store, log)
		svc := verify.New(store, r, verify.WithLogger(log), verify.WithBaseURL(cfg.VerifyBaseURL))
		if err := svc.PDF(ctx, *certificateID, f); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	d, err := src.design(ctx, cfg)
	if err != nil {
		return err
	}
	reportFonts(r, log, d.FontFamilies())
	if missing := resolve.Unresolved(d); len(missing) > 0 {
		log.Warn("unresolved tokens", "tokens", strings.Join(missing, ", "))
	}

	if strings.EqualFold(filepath.Ext(path), ".png") {
		if err := r.Images().Preload(ctx, render.Sources(d)...); err != nil {
			return err
		}
		err = export.PNG(f, r.Render(d, render.Options{Mode: render.Export}))
	} else {
		err = export.Render(ctx, r, d, f)
	}
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Design JSON file")
	orgID := fs.String("org", "default", "Organization owning the template")
	name := fs.String("name", "", "Template name; defaults to the file name")
	title := fs.String("title", "", "Certificate title shown on verification")
	fs.Parse(args)

	if *file == "" {
		return errors.New("-file is required")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	d, err := document.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("%s: %w", *file, err)
	}
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	}

	log := cfg.Logger(os.Stderr)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	tpl := newTemplate(*orgID, *name, *title, d)
	if err := store.Create(ctx, tpl); err != nil {
		return err
	}
	log.Info("template imported", "id", tpl.ID, "elements", len(d.Elements))
	fmt.Println(tpl.ID)
	return nil
}

// newTemplate wraps a design in a draft template record.
func newTemplate(orgID, name, title string, d document.Design) *storage.Template {
	now := time.Now().UTC()
	return &storage.Template{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		Title:          title,
		Description:    d.Canvas.Description,
		Type:           d.Canvas.DesignType,
		Design:         d,
		Governance:     document.DefaultGovernance(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func runNew(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	preset := fs.String("preset", "", "Preset to start from; see -list")
	list := fs.Bool("list", false, "List the available presets")
	orgID := fs.String("org", "default", "Organization owning the template")
	name := fs.String("name", "", "Template name; defaults to the preset name")
	title := fs.String("title", "", "Certificate title shown on verification")
	fs.Parse(args)

	if *list {
		all, err := presets.List()
		if err != nil {
			return err
		}
		for _, p := range all {
			fmt.Printf("%-22s %s\n", p.Key, p.Description)
		}
		return nil
	}
	if *preset == "" {
		return fmt.Errorf("-preset is required; one of %s", strings.Join(presets.Keys(), ", "))
	}
	p, err := presets.Get(*preset)
	if err != nil {
		return err
	}
	if *name == "" {
		*name = p.Name
	}

	log := cfg.Logger(os.Stderr)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	tpl := newTemplate(*orgID, *name, *title, p.Design)
	if err := store.Create(ctx, tpl); err != nil {
		return err
	}
	log.Info("template created", "id", tpl.ID, "preset", p.Key)
	fmt.Println(tpl.ID)
	return nil
}

func runOrganization(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("org", flag.ExitOnError)
	id := fs.String("id", "", "Organization id")
	name := fs.String("name", "", "Organization name")
	website := fs.String("website", "", "Organization website")
	fs.Parse(args)

	if *id == "" || *name == "" {
		return errors.New("-id and -name are required")
	}
	log := cfg.Logger(os.Stderr)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	return store.CreateOrganization(ctx, &storage.Organization{
		ID:        *id,
		Name:      *name,
		Website:   *website,
		CreatedAt: time.Now().UTC(),
	})
}

func runIssue(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	templateID := fs.String("template", "", "Template id")
	recipient := fs.String("recipient", "", "Recipient name")
	email := fs.String("email", "", "Recipient email")
	certificateID := fs.String("id", "", "Public certificate id; generated when empty")
	title := fs.String("title", "", "Achievement title; defaults to the template title")
	fs.Parse(args)

	if *templateID == "" || *recipient == "" {
		return errors.New("-template and -recipient are required")
	}
	log := cfg.Logger(os.Stderr)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	tpl, err := store.Get(ctx, *templateID)
	if err != nil {
		return err
	}
	if *certificateID == "" {
		*certificateID = "CERT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	}
	if *title == "" {
		*title = tpl.Title
	}

	now := time.Now().UTC()
	c := &storage.Certificate{
		ID:             uuid.NewString(),
		CertificateID:  *certificateID,
		TemplateID:     tpl.ID,
		OrganizationID: tpl.OrganizationID,
		RecipientName:  *recipient,
		RecipientEmail: *email,
		IssuedDate:     now,
		Title:          *title,
		Description:    tpl.Description,
		CreatedAt:      now,
	}
	if err := store.CreateCertificate(ctx, c); err != nil {
		return err
	}
	fmt.Println(verify.VerifyLink(cfg.VerifyBaseURL, c.CertificateID))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "Listen address")
	accessLog := fs.Bool("access-log", true, "Write an access log to stdout")
	fs.Parse(args)

	log := cfg.Logger(os.Stderr)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	r, err := newRenderer(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	svc := verify.New(store, r, verify.WithLogger(log), verify.WithBaseURL(cfg.VerifyBaseURL))

	opts := []server.Option{server.WithLogger(log), server.WithHealthCheck(store.Ping)}
	if *accessLog {
		opts = append(opts, server.WithAccessLog(os.Stdout))
	}
	srv := server.New(server.Config{
		Addr:           *addr,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		TrustedProxies: cfg.TrustedProxies,
	}, svc, opts...)
	return srv.Run(ctx)
}
