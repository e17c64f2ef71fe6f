// Package session wires the pipeline together: it owns the arenas, the error
// handler and the pass components, and exposes the entry points a driver
// calls. One session compiles one source unit; sessions share nothing, so
// independent units compile in parallel by running one session each.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/GeorgieTragnar/cprime-sub000/internal/contextual"
	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/execmeta"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
	"github.com/GeorgieTragnar/cprime-sub000/internal/lexer"
	"github.com/GeorgieTragnar/cprime-sub000/internal/pattern"
	"github.com/GeorgieTragnar/cprime-sub000/internal/raii"
	"github.com/GeorgieTragnar/cprime-sub000/internal/structure"
	"github.com/GeorgieTragnar/cprime-sub000/internal/validate"
)

// Session owns the state of one compilation unit.
type Session struct {
	ID uuid.UUID

	cfg      *Config
	strings  *ir.StringArena
	tokens   *ir.TokenArena
	scopes   *ir.ScopeArena
	errs     *diag.Handler
	exec     *execmeta.Registry
	runtime  *execmeta.Runtime
	patterns *pattern.Registry
	valid    *validate.Validator
	primary  uint32
}

// New creates an empty session. A nil config selects the defaults.
func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	patterns, err := pattern.NewRegistry()
	if err != nil {
		return nil, err
	}

	strs := ir.NewStringArena()
	tokens := ir.NewTokenArena()
	primary := tokens.NewStream()
	scopes := ir.NewScopeArena(primary)
	errs := diag.NewHandler(cfg.Severity)

	return &Session{
		ID:       uuid.New(),
		cfg:      cfg,
		strings:  strs,
		tokens:   tokens,
		scopes:   scopes,
		errs:     errs,
		exec:     execmeta.NewRegistry(strs),
		runtime:  execmeta.NewRuntime(cfg.ExecTimeout),
		patterns: patterns,
		valid:    validate.New(strs, tokens, scopes, errs),
		primary:  primary,
	}, nil
}

// Arena accessors for drivers that inspect intermediate state.

func (s *Session) Strings() *ir.StringArena { return s.strings }
func (s *Session) Tokens() *ir.TokenArena   { return s.tokens }
func (s *Session) Scopes() *ir.ScopeArena   { return s.scopes }
func (s *Session) Handler() *diag.Handler   { return s.errs }
func (s *Session) PrimaryStream() uint32    { return s.primary }

// Tokenise runs layer 1 over the source unit. The stream is registered with
// the error handler so later diagnostics resolve to name's lines.
func (s *Session) Tokenise(name string, source []byte) lexer.Result {
	s.errs.AddStream(s.primary, name, string(source))
	return lexer.Tokenise(source, s.primary, s.strings, s.tokens, s.errs)
}

// BuildStructure runs layer 2 over the primary stream and the post-structure
// validator after it.
func (s *Session) BuildStructure(ctx context.Context) (structure.Result, error) {
	b := structure.NewBuilder(s.strings, s.tokens, s.scopes, s.errs, s.exec, s.runtime)
	res, err := b.Build(ctx, s.primary)
	if err != nil {
		return res, err
	}
	res.OK = s.valid.PostStructure() && res.OK
	return res, nil
}

// Contextualise runs layer 3 and the post-contextual validator after it.
func (s *Session) Contextualise(ctx context.Context) (contextual.Result, error) {
	res, err := contextual.New(s.strings, s.tokens, s.scopes, s.patterns, s.exec, s.errs).Run(ctx)
	if err != nil {
		return res, err
	}
	res.OK = s.valid.PostContextual() && res.OK
	return res, nil
}

// LowerRAIIDefer runs layer 4 and the post-lowering validator after it.
func (s *Session) LowerRAIIDefer(ctx context.Context) (raii.Result, error) {
	res, err := raii.New(s.strings, s.tokens, s.scopes, s.errs).Run(ctx)
	if err != nil {
		return res, err
	}
	res.OK = s.valid.PostLowering() && res.OK
	return res, nil
}

// Report resolves source locations and groups diagnostics by severity.
func (s *Session) Report() diag.Report {
	s.errs.ResolveSourceLocations(s.scopes, s.tokens)
	return s.errs.Report()
}

// Render resolves source locations and produces the textual report.
func (s *Session) Render() string {
	s.errs.ResolveSourceLocations(s.scopes, s.tokens)
	return s.errs.Render()
}

// Summary describes one finished compilation.
type Summary struct {
	File     string `json:"file"`
	Tokens   int    `json:"tokens"`
	Streams  int    `json:"streams"`
	Scopes   int    `json:"scopes"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Failed   bool   `json:"failed"`
}

// Compile runs all layers over one source unit and returns the summary. The
// pipeline never aborts on diagnostics; every layer runs so a single
// invocation surfaces every finding. Only cancellation returns an error.
func (s *Session) Compile(ctx context.Context, name string, source []byte) (Summary, error) {
	s.Tokenise(name, source)
	if _, err := s.BuildStructure(ctx); err != nil {
		return Summary{}, err
	}
	if _, err := s.Contextualise(ctx); err != nil {
		return Summary{}, err
	}
	if _, err := s.LowerRAIIDefer(ctx); err != nil {
		return Summary{}, err
	}
	rep := s.Report()
	errors, warnings := s.errs.Count()
	return Summary{
		File:     name,
		Tokens:   s.tokens.StreamLen(s.primary),
		Streams:  s.tokens.StreamCount(),
		Scopes:   s.scopes.Len(),
		Errors:   errors,
		Warnings: warnings,
		Failed:   rep.Failed,
	}, nil
}
