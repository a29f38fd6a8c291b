package recovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultPreviewLength bounds the text carried by RecoveryFailedError.
const DefaultPreviewLength = 200

// Path records which strategy produced a Result.
type Path string

const (
	PathStrict   Path = "strict"
	PathSalvaged Path = "salvaged"
)

// Result is a recovered model answer.
type Result struct {
	PrimaryText string `json:"primary_text"`
	BodyText    string `json:"body_text"`
	Confident   bool   `json:"confident"`
	Path        Path   `json:"path"`
}

// Fields names the JSON keys the model was asked to produce.
type Fields struct {
	Primary   string `yaml:"primary"`
	Body      string `yaml:"body"`
	Confident string `yaml:"confident"`
}

// DefaultFields matches the listing prompt: title, specs and confident.
var DefaultFields = Fields{Primary: "title", Body: "specs", Confident: "confident"}

// Validate checks that all keys are set and distinct.
func (f Fields) Validate() error {
	if f.Primary == "" || f.Body == "" || f.Confident == "" {
		return errors.New("recovery: field names must not be empty")
	}
	if f.Primary == f.Body || f.Primary == f.Confident || f.Body == f.Confident {
		return errors.New("recovery: field names must be distinct")
	}
	return nil
}

// BracketMode selects how the JSON candidate is cut out of the text.
type BracketMode int

const (
	// BracketGreedy spans the first '{' to the last '}'.
	BracketGreedy BracketMode = iota
	// BracketBalanced tries each '{' and its depth-matched '}'.
	BracketBalanced
)

// ParseBracketMode maps "greedy" and "balanced" to a BracketMode.
func ParseBracketMode(s string) (BracketMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greedy":
		return BracketGreedy, nil
	case "balanced":
		return BracketBalanced, nil
	default:
		return BracketGreedy, fmt.Errorf("recovery: unknown bracket mode %q", s)
	}
}

func (m BracketMode) String() string {
	if m == BracketBalanced {
		return "balanced"
	}
	return "greedy"
}

// Option configures a Parser.
type Option func(*Parser)

// WithFields overrides the JSON key names.
func WithFields(f Fields) Option {
	return func(p *Parser) { p.fields = f }
}

// WithBracketMode selects the candidate extraction mode.
func WithBracketMode(m BracketMode) Option {
	return func(p *Parser) { p.mode = m }
}

// WithPreviewLength sets the rune limit of failure previews.
func WithPreviewLength(n int) Option {
	return func(p *Parser) { p.previewLen = n }
}

// Parser recovers Results from model output.
type Parser struct {
	fields     Fields
	mode       BracketMode
	previewLen int

	schema  *jsonschema.Schema
	salvage *salvager
}

// New builds a Parser. It fails only on invalid options.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		fields:     DefaultFields,
		mode:       BracketGreedy,
		previewLen: DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.fields.Validate(); err != nil {
		return nil, err
	}
	if p.previewLen < 0 {
		return nil, fmt.Errorf("recovery: preview length must be non-negative, got %d", p.previewLen)
	}

	schema, err := compileSchema(p.fields)
	if err != nil {
		return nil, err
	}
	p.schema = schema
	p.salvage = newSalvager(p.fields)
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Parser {
	p, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Fields returns the configured key names.
func (p *Parser) Fields() Fields { return p.fields }

// Recover extracts a Result from text.
func (p *Parser) Recover(text string) (*Result, error) {
	normalized := normalize(text)

	var strictErr error
	for _, candidate := range p.candidates(normalized) {
		res, err := p.parseStrict(repairEscapes(candidate))
		if err == nil {
			return res, nil
		}
		if strictErr == nil {
			strictErr = err
		}
	}

	if strings.HasPrefix(normalized, "{") {
		if res, ok := p.salvage.extract(normalized); ok {
			return res, nil
		}
	}

	return nil, &RecoveryFailedError{
		Preview: preview(text, p.previewLen),
		Cause:   strictErr,
	}
}

func (p *Parser) candidates(text string) []string {
	if p.mode == BracketBalanced {
		return balancedCandidates(text)
	}
	if c := greedyCandidate(text); c != "" {
		return []string{c}
	}
	return nil
}

var defaultParser = MustNew()

// Recover runs the default Parser over text.
func Recover(text string) (*Result, error) {
	return defaultParser.Recover(text)
}
