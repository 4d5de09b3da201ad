// Command mustache-cli renders mustache templates from the command line.
//
//	mustache-cli -data context.yaml page.mustache [more templates...]
//
// Context documents are YAML or JSON. Multiple templates render
// concurrently and print in argument order. With -print-source the
// reconstructed template source is emitted instead of rendering; with
// -interactive the CLI walks the template's tags and prompts for context
// values the data document does not supply.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	mustache "github.com/goliatone/go-mustache"
	"github.com/goliatone/go-mustache/internal/prompt"
	"github.com/goliatone/go-mustache/pkg/node"
)

func main() {
	dataPath := flag.String("data", "", "YAML or JSON context document")
	output := flag.String("out", "", "output file (stdout if empty)")
	openDelim := flag.String("open", "", "starting open delimiter")
	closeDelim := flag.String("close", "", "starting close delimiter")
	partialsDir := flag.String("partials", "", "directory partials are loaded from")
	printSource := flag.Bool("print-source", false, "emit reconstructed template source instead of rendering")
	strict := flag.Bool("strict", false, "fail on missing variables")
	debug := flag.Bool("debug", false, "verbose logging")
	interactive := flag.Bool("interactive", false, "prompt for context values missing from the data document")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: mustache-cli [flags] template.mustache [more templates...]")
	}

	logger := zap.NewNop()
	if *debug {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("init logger: %v", err)
		}
	}

	opts := []mustache.Option{
		mustache.WithStrictMissing(*strict),
		mustache.WithLogger(logger),
	}
	if *openDelim != "" && *closeDelim != "" {
		opts = append(opts, mustache.WithDelimiters(*openDelim, *closeDelim))
	}
	if *partialsDir != "" {
		opts = append(opts, mustache.WithPartials(mustache.PartialsFromFS(os.DirFS(*partialsDir))))
	}
	engine := mustache.New(opts...)

	templates := make([]*mustache.Template, flag.NArg())
	for i, path := range flag.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read template: %v", err)
		}
		if templates[i], err = engine.Compile(path, string(src)); err != nil {
			log.Fatalf("compile template: %v", err)
		}
	}

	if *printSource {
		var buf strings.Builder
		for _, t := range templates {
			if err := t.Source(&buf); err != nil {
				log.Fatalf("reconstruct source: %v", err)
			}
		}
		writeOutput(*output, buf.String())
		return
	}

	data, err := loadData(*dataPath)
	if err != nil {
		log.Fatalf("load data: %v", err)
	}

	ctx := context.Background()
	if *interactive {
		driver := prompt.NewSurvey()
		for _, t := range templates {
			if err := promptTags(ctx, driver, t.Tags(), data); err != nil {
				log.Fatalf("collect context: %v", err)
			}
		}
	}

	outputs := make([]string, len(templates))
	g, _ := errgroup.WithContext(ctx)
	for i, t := range templates {
		i, t := i, t
		g.Go(func() error {
			out, err := t.Render(data)
			outputs[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("render: %v", err)
	}

	writeOutput(*output, strings.Join(outputs, ""))
}

func loadData(path string) (map[string]any, error) {
	data := map[string]any{}
	if path == "" {
		return data, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// promptTags walks a template's structural tags and asks for every value
// the context document does not already supply. Sections confirm inclusion
// and recurse; inverted sections render on missing values, so they are left
// alone.
func promptTags(ctx context.Context, driver prompt.Driver, tags []mustache.Tag, data map[string]any) error {
	for _, tag := range tags {
		if _, ok := data[tag.Name]; ok {
			continue
		}
		switch tag.Kind {
		case node.KindVariable:
			val, err := driver.Input(ctx, prompt.InputConfig{Message: tag.Name})
			if err != nil {
				return err
			}
			data[tag.Name] = val
		case node.KindSection:
			include, err := driver.Confirm(ctx, prompt.ConfirmConfig{
				Message: fmt.Sprintf("include section %q?", tag.Name),
				Default: true,
			})
			if err != nil {
				return err
			}
			data[tag.Name] = include
			if include {
				if err := promptTags(ctx, driver, tag.Tags, data); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeOutput(path, content string) {
	if path == "" {
		fmt.Print(content)
		return
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	fmt.Printf("output written to %s\n", path)
}
