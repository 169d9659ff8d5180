package prompt

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"finpanel/pkg/contracts/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	// ErrUnknownSector is returned when the requested sector is not in the document
	ErrUnknownSector = errors.New("prompt: unknown sector")
	// ErrUnknownCompany is returned when the requested company is not in the sector
	ErrUnknownCompany = errors.New("prompt: unknown company")
)

// Request describes one analysis prompt
type Request struct {
	Sector  string
	Company string
	Topic   Topic
	Scope   Scope
}

// Message is one chat message handed to an Analyzer
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the assembled model input. Data is the DATA payload:
// {sector: [CompanyEntry...]} with null for every unknown metric.
type Prompt struct {
	Request Request         `json:"-"`
	System  string          `json:"system"`
	Data    json.RawMessage `json:"data"`
}

// Messages returns the system and user messages of the prompt
func (p *Prompt) Messages() []Message {
	return []Message{
		{Role: "system", Content: p.System},
		{Role: "user", Content: string(p.Data)},
	}
}

// Analyzer runs a prompt against a language model
type Analyzer interface {
	Analyze(ctx context.Context, messages []Message) (string, error)
}

// Builder renders system prompts and DATA payloads
type Builder struct {
	templates *template.Template
}

// NewBuilder parses the embedded prompt templates
func NewBuilder() (*Builder, error) {
	tmpl, err := template.New("prompt").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Builder{templates: tmpl}, nil
}

type templateData struct {
	Sector  string
	Company string
	Topic   Topic
	Sectors []string
	Specs   []topicSpec
}

// Build assembles the prompt for req from doc. The company scope needs a
// concrete topic; the DATA payload always holds the whole sector so the
// model can compute peer averages.
func (b *Builder) Build(doc domain.SectorDocument, req Request) (*Prompt, error) {
	if req.Scope == "" {
		req.Scope = ScopeCompany
	}
	if req.Topic == "" {
		req.Topic = TopicAll
	}
	specs := specsFor(req.Topic)
	if specs == nil {
		return nil, fmt.Errorf("prompt: unknown topic %q", req.Topic)
	}

	data := templateData{Sector: req.Sector, Company: req.Company, Topic: req.Topic, Specs: specs}
	var name string
	var scoped domain.SectorDocument

	switch req.Scope {
	case ScopeCompany:
		if req.Topic == TopicAll {
			return nil, fmt.Errorf("prompt: company scope needs a single topic")
		}
		sector, ok := doc.Sector(req.Sector)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSector, req.Sector)
		}
		if !hasCompany(sector, req.Company) {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownCompany, req.Company, req.Sector)
		}
		name = "company.tmpl"
		scoped = doc.Filter(req.Sector, "")
	case ScopeAllCompanies:
		if req.Sector != "" {
			if _, ok := doc.Sector(req.Sector); !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSector, req.Sector)
			}
		}
		name = "all_companies.tmpl"
		scoped = doc.Filter(req.Sector, "")
	default:
		return nil, fmt.Errorf("prompt: unknown scope %q", req.Scope)
	}
	data.Sectors = scoped.SectorNames()

	var system bytes.Buffer
	if err := b.templates.ExecuteTemplate(&system, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	payload, err := domain.EncodeDocument(scoped)
	if err != nil {
		return nil, fmt.Errorf("encode prompt data: %w", err)
	}

	return &Prompt{
		Request: req,
		System:  strings.TrimSpace(system.String()),
		Data:    payload,
	}, nil
}

func hasCompany(sector domain.Sector, symbol string) bool {
	for _, c := range sector.Companies {
		if c.Symbol == symbol {
			return true
		}
	}
	return false
}
