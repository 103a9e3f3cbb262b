// Package catalog loads subject and question banks into the store.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/domain"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default_bank.json
var defaultBank []byte

const schemaURL = "schema://question-bank.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Bank is a set of subjects with their questions.
type Bank struct {
	Subjects []BankSubject `json:"subjects"`
}

type BankSubject struct {
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Emoji     string         `json:"emoji"`
	Questions []BankQuestion `json:"questions"`
}

type BankQuestion struct {
	Prompt  string        `json:"prompt"`
	Options [4]string     `json:"options"`
	Correct domain.Letter `json:"correct"`
}

// Result counts what an import changed.
type Result struct {
	Subjects  int
	Questions int
	Skipped   int
}

// DefaultBank returns the embedded starter bank.
func DefaultBank() []byte {
	return defaultBank
}

// Parse validates raw JSON against the bank schema and decodes it.
func Parse(raw []byte) (Bank, error) {
	schema, err := bankSchema()
	if err != nil {
		return Bank{}, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Bank{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return Bank{}, fmt.Errorf("question bank validation failed: %w", err)
	}

	var bank Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return Bank{}, fmt.Errorf("decode question bank: %w", err)
	}
	return bank, nil
}

func bankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Importer writes banks into a catalog store.
type Importer struct {
	store app.CatalogStore
	now   func() time.Time
}

func NewImporter(store app.CatalogStore) *Importer {
	return &Importer{store: store, now: time.Now}
}

// ImportJSON parses raw and imports it.
func (i *Importer) ImportJSON(ctx context.Context, raw []byte) (Result, error) {
	bank, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	return i.Import(ctx, bank)
}

// Import upserts subjects by slug and inserts shared questions whose prompt is not
// already present for the subject, so running it twice is harmless.
func (i *Importer) Import(ctx context.Context, bank Bank) (Result, error) {
	var res Result
	base := i.now()
	for _, bs := range bank.Subjects {
		subject, err := i.store.UpsertSubject(ctx, domain.Subject{
			ID:    uuid.NewString(),
			Name:  bs.Name,
			Emoji: bs.Emoji,
			Slug:  bs.Slug,
		})
		if err != nil {
			return res, fmt.Errorf("upsert subject %s: %w", bs.Slug, err)
		}
		res.Subjects++

		existing, err := i.store.QuestionsBySubject(ctx, subject.ID)
		if err != nil {
			return res, fmt.Errorf("list questions %s: %w", bs.Slug, err)
		}
		seen := make(map[string]struct{}, len(existing))
		for _, q := range existing {
			if !q.IsCustom {
				seen[normalizePrompt(q.Prompt)] = struct{}{}
			}
		}

		for n, bq := range bs.Questions {
			key := normalizePrompt(bq.Prompt)
			if _, ok := seen[key]; ok {
				res.Skipped++
				continue
			}
			seen[key] = struct{}{}
			_, err := i.store.InsertQuestion(ctx, domain.Question{
				ID:        uuid.NewString(),
				SubjectID: subject.ID,
				Prompt:    strings.TrimSpace(bq.Prompt),
				Options:   bq.Options,
				Correct:   bq.Correct,
				CreatedAt: base.Add(time.Duration(n) * time.Millisecond),
			})
			if err != nil {
				return res, fmt.Errorf("insert question into %s: %w", bs.Slug, err)
			}
			res.Questions++
		}
	}
	return res, nil
}

func normalizePrompt(p string) string {
	return strings.ToLower(strings.Join(strings.Fields(p), " "))
}
