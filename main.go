package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/quillcms/quill/core/fields"
	"github.com/quillcms/quill/core/query"
	"github.com/quillcms/quill/core/registry"
	"github.com/quillcms/quill/mongo"
)

func demoConfig() registry.Config {
	return registry.Config{
		Collections: []fields.Collection{
			{
				Slug:       "users",
				Timestamps: true,
				Fields: []fields.Field{
					{Name: "name", Type: fields.TypeText, Required: true},
					{Name: "email", Type: fields.TypeEmail, Required: true},
				},
			},
			{
				Slug:       "posts",
				Timestamps: true,
				Fields: []fields.Field{
					{Name: "title", Type: fields.TypeText, Required: true, Localized: true},
					{Name: "status", Type: fields.TypeSelect, Options: []fields.Option{
						{Label: "Draft", Value: "draft"},
						{Label: "Published", Value: "published"},
					}},
					{Name: "author", Type: fields.TypeRelationship, RelationTo: []string{"users"}},
					{Name: "meta", Type: fields.TypeGroup, InterfaceName: "PostMeta", Fields: []fields.Field{
						{Name: "description", Type: fields.TypeTextarea},
						{Name: "keywords", Type: fields.TypeText, HasMany: true},
					}},
				},
			},
		},
		Localization: &fields.Localization{
			Locales:       []string{"en", "de"},
			DefaultLocale: "en",
		},
	}
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	reg, err := registry.New(demoConfig(), logger)
	if err != nil {
		logger.Fatal("configuration rejected", zap.Error(err))
	}

	subID := reg.RegisterSubscription(registry.RegisterSubscriptionOptions{
		Event: registry.SchemaDeriveSuccess,
		Callback: func(ctx context.Context, event registry.ConfigEvent) error {
			logger.Info("schema derivation finished", zap.Int64("timestamp", event.Timestamp))
			return nil
		},
	})
	defer reg.UnregisterSubscription(subID)

	// Translate an API-shaped filter into a native one.
	where, err := query.ParseWhere(map[string]any{
		"and": []any{
			map[string]any{"status": map[string]any{"equals": "published"}},
			map[string]any{"author.name": map[string]any{"like": "ada lovelace"}},
			map[string]any{"title": map[string]any{"contains": "schema"}},
		},
	})
	if err != nil {
		logger.Fatal("bad filter", zap.Error(err))
	}

	translator := mongo.NewTranslator(reg, reg.Localization(), logger)
	filter, joins, err := translator.Translate("posts", where, "de")
	if err != nil {
		logger.Fatal("translation failed", zap.Error(err))
	}

	fmt.Println("--- filter ---")
	printJSON(filter)
	fmt.Println("--- join stages ---")
	for _, stage := range joins {
		printJSON(stage.Lookup())
	}

	sortDoc, err := translator.Sort("posts", "-createdAt,title", "de")
	if err != nil {
		logger.Fatal("sort rejected", zap.Error(err))
	}
	fmt.Println("--- sort ---")
	printJSON(sortDoc)

	// Derive the structural schema for every collection.
	schemas, err := reg.DeriveSchemas()
	if err != nil {
		logger.Fatal("schema derivation failed", zap.Error(err))
	}
	fmt.Println("--- schemas ---")
	printJSON(schemas)
}

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("marshal failed: %v", err)
		return
	}
	fmt.Println(string(raw))
}
